package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strings"

	"github.com/common-nighthawk/go-figure"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bilguunDash/online-shopping-sub000/client"
	"github.com/bilguunDash/online-shopping-sub000/collection"
	"github.com/bilguunDash/online-shopping-sub000/events"
	"github.com/bilguunDash/online-shopping-sub000/internal/config"
	"github.com/bilguunDash/online-shopping-sub000/kvstore"
	redisstore "github.com/bilguunDash/online-shopping-sub000/kvstore/redis"
	"github.com/bilguunDash/online-shopping-sub000/sessions"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	ctx := context.Background()

	storage, err := newStorage(c)
	if err != nil {
		return fmt.Errorf("initialising storage: %w", err)
	}
	tokens, err := sessions.NewTokenStore(ctx, storage)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	bus := events.New()
	cart := collection.NewCart(storage, bus)
	wishlist := collection.NewWishlist(storage, bus)

	// Badge rendering the way the UI does it: subscribe, then re-read on
	// every change notification.
	unsubscribe := bus.Subscribe(events.CartCountChanged, func(detail any) {
		if ev, ok := detail.(events.CountEvent); ok {
			fmt.Printf("cart badge: %d item(s)\n", ev.Count)
		}
	})
	defer unsubscribe()

	shop := client.New(c.GetAPIBaseURL(), tokens, bus,
		client.WithTimeout(c.GetRequestTimeout()),
		client.WithLoginRedirect(func(ev events.AuthErrorEvent) {
			fmt.Printf("session ended (%d): %s, please sign in again at %s\n", ev.Status, ev.Message, c.GetLoginPath())
		}),
	)

	if email, password := os.Getenv("SHOP_EMAIL"), os.Getenv("SHOP_PASSWORD"); email != "" {
		sess, err := shop.Login(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if sess.Claims != nil {
			fmt.Printf("signed in as %s %s (%s)\n", sess.Claims.FirstName, sess.Claims.LastName, sess.Claims.Role)
		}
		if err := shop.EnsureCart(ctx); err != nil {
			fmt.Printf("cart unavailable: %s\n", err)
		}
	}

	products, err := shop.Products(ctx)
	if err != nil {
		return fmt.Errorf("listing products: %w", err)
	}
	for _, p := range products {
		fmt.Printf("%6d  %-30s %10.2f\n", p.ID, p.Name, p.Price)
	}

	items, err := wishlist.List(ctx)
	if err != nil {
		return fmt.Errorf("reading wishlist: %w", err)
	}
	fmt.Printf("wishlist: %d item(s)\n", len(items))

	count, err := cart.Count(ctx)
	if err != nil {
		return fmt.Errorf("reading cart mirror: %w", err)
	}
	fmt.Printf("cart mirror: %d item(s)\n", count)
	return nil
}

func newStorage(c config.Config) (kvstore.Store, error) {
	switch strings.ToLower(c.GetStorageBackend()) {
	case "redis":
		rc := goredis.NewClient(&goredis.Options{Addr: c.GetRedisAddr()})
		return redisstore.New(rc, "shop"), nil
	case "memory":
		return kvstore.NewMemoryStore(), nil
	default:
		return kvstore.NewFileStore(c.GetDataFile())
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
