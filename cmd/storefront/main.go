package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/darlemlih/storefront/api/rest"
	"github.com/darlemlih/storefront/api/transport"
	"github.com/darlemlih/storefront/domain"
	"github.com/darlemlih/storefront/internal/config"
	"github.com/darlemlih/storefront/internal/lifecycle"
	"github.com/darlemlih/storefront/internal/monitor"
	"github.com/darlemlih/storefront/pkg/credentials"
	"github.com/darlemlih/storefront/pkg/logger"
	"github.com/darlemlih/storefront/repository"
	boltRepo "github.com/darlemlih/storefront/repository/bolt"
	redisRepo "github.com/darlemlih/storefront/repository/redis"
	authStore "github.com/darlemlih/storefront/usecase/auth"
	cartStore "github.com/darlemlih/storefront/usecase/cart"
)

// storage is the combined persistence surface both stores share.
type storage interface {
	repository.SessionStorage
	repository.CartStorage
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(0, zapLogger)
	manager.Listen(cancel)
	defer func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			zapLogger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	store, err := openStorage(cfg, manager)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.Error(err))
	}

	creds := credentials.NewCache(store, zapLogger)
	client := rest.New(rest.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, creds, zapLogger)

	auth := authStore.New(client, creds, store, zapLogger)
	if err := auth.Hydrate(appCtx); err != nil {
		zapLogger.Warn("session hydration failed", zap.Error(err))
	}

	cart := cartStore.New(cartStore.Config{
		ShippingCost: cfg.Cart.ShippingCost,
		Currency:     cfg.Cart.Currency,
	}, client, auth, store, zapLogger)
	if err := cart.Hydrate(appCtx); err != nil {
		zapLogger.Warn("cart hydration failed", zap.Error(err))
	}

	app := &cli{
		cfg:     cfg,
		client:  client,
		auth:    auth,
		cart:    cart,
		manager: manager,
		logger:  zapLogger,
	}

	if err := app.run(appCtx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		manager.Shutdown(context.Background())
		zapLogger.Sync()
		os.Exit(1)
	}
}

func openStorage(cfg *config.Config, manager *lifecycle.Manager) (storage, error) {
	switch cfg.Storage.Backend {
	case "redis":
		client, err := redisRepo.NewClient(redisRepo.ClientConfig{
			URL:      cfg.Storage.RedisURL,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		manager.Register("redis", func(ctx context.Context) error {
			return client.Close()
		})
		return redisRepo.NewStorage(client, cfg.Storage.RedisPrefix, cfg.Storage.RedisTTL), nil
	default:
		store, err := boltRepo.Open(cfg.Storage.BoltPath, cfg.Storage.BoltBucket)
		if err != nil {
			return nil, err
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return store.Close()
		})
		return store, nil
	}
}

type cli struct {
	cfg     *config.Config
	client  *rest.Client
	auth    *authStore.Store
	cart    *cartStore.Store
	manager *lifecycle.Manager
	logger  *zap.Logger
}

func (a *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return nil
	}

	switch cmd, params := args[0], args[1:]; cmd {
	case "register":
		return a.register(ctx, params)
	case "login":
		return a.login(ctx, params)
	case "logout":
		a.auth.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "me":
		return a.me(ctx)
	case "cart":
		return a.showCart()
	case "cart-add":
		return a.cartAdd(ctx, params)
	case "cart-update":
		return a.cartUpdate(ctx, params)
	case "cart-remove":
		return a.cartRemove(ctx, params)
	case "cart-clear":
		return a.cart.Clear(ctx)
	case "status":
		return a.status(ctx)
	case "watch":
		return a.watch(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *cli) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: register <name> <email> <password> [phone]")
	}
	req := transport.RegisterRequest{Name: args[0], Email: args[1], Password: args[2]}
	if len(args) > 3 {
		req.Phone = args[3]
	}
	if err := a.auth.Register(ctx, req); err != nil {
		return err
	}
	return a.afterLogin(ctx)
}

func (a *cli) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	if err := a.auth.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	return a.afterLogin(ctx)
}

// afterLogin folds any guest cart into the server cart.
func (a *cli) afterLogin(ctx context.Context) error {
	if err := a.cart.MergeOnLogin(ctx); err != nil {
		a.logger.Warn("guest cart merge failed", zap.Error(err))
	}
	if user := a.auth.User(); user != nil {
		fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
	}
	return nil
}

func (a *cli) me(ctx context.Context) error {
	a.auth.FetchUser(ctx)
	user := a.auth.User()
	if user == nil {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
	return nil
}

func (a *cli) showCart() error {
	cart := a.cart.Cart()
	if len(cart.Items) == 0 {
		fmt.Println("cart is empty")
		return nil
	}
	for _, item := range cart.Items {
		fmt.Printf("%-30s x%-3d %8.2f %s\n", item.ProductName, item.Quantity, item.TotalPrice, cart.Currency)
	}
	fmt.Printf("subtotal %.2f, shipping %.2f, total %.2f %s (%d items)\n",
		cart.Subtotal, cart.ShippingCost, cart.Total, cart.Currency, a.cart.TotalItems())
	return nil
}

func (a *cli) cartAdd(ctx context.Context, args []string) error {
	productID, quantity, err := parseLine(args, "cart-add")
	if err != nil {
		return err
	}

	var product domain.Product
	if !a.auth.IsAuthenticated() {
		// guest mode needs the catalog record for clamping and pricing
		p, err := a.client.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		product = *p
	} else {
		product = domain.Product{ID: productID}
	}

	if err := a.cart.AddItem(ctx, product, quantity); err != nil {
		return err
	}
	return a.showCart()
}

func (a *cli) cartUpdate(ctx context.Context, args []string) error {
	productID, quantity, err := parseLine(args, "cart-update")
	if err != nil {
		return err
	}
	if err := a.cart.UpdateQuantity(ctx, productID, quantity); err != nil {
		return err
	}
	return a.showCart()
}

func (a *cli) cartRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cart-remove <productID>")
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	if err := a.cart.RemoveItem(ctx, productID); err != nil {
		return err
	}
	return a.showCart()
}

func (a *cli) status(ctx context.Context) error {
	mon := monitor.New(a.client, a.cfg.Monitor.Interval, a.logger)
	st := mon.RefreshOnce(ctx)
	if st.Online {
		fmt.Println("backend: online")
	} else {
		fmt.Printf("backend: offline (%s) - cart runs in guest mode\n", st.LastError)
	}
	if user := a.auth.User(); a.auth.IsAuthenticated() && user != nil {
		fmt.Printf("session: %s\n", user.Email)
	} else {
		fmt.Println("session: guest")
	}
	return nil
}

// watch keeps probing the backend until interrupted.
func (a *cli) watch(ctx context.Context) error {
	mon := monitor.New(a.client, a.cfg.Monitor.Interval, a.logger)
	mon.Start()
	a.manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})
	fmt.Println("watching backend, ctrl-c to stop")
	<-ctx.Done()
	return nil
}

func parseLine(args []string, cmd string) (int64, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("usage: %s <productID> <quantity>", cmd)
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid product id %q", args[0])
	}
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quantity %q", args[1])
	}
	return productID, quantity, nil
}

func usage() {
	fmt.Println(`usage: storefront <command> [args]

  register <name> <email> <password> [phone]
  login <email> <password>
  logout
  me
  cart
  cart-add <productID> <quantity>
  cart-update <productID> <quantity>
  cart-remove <productID>
  cart-clear
  status
  watch`)
}
