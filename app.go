package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cafe-cart/cart"
	"cafe-cart/catalog"
	"cafe-cart/config"
	"cafe-cart/geo"
	"cafe-cart/handoff"
	"cafe-cart/order"
	"cafe-cart/service"
	"cafe-cart/store"

	"go.uber.org/zap"
)

// app is everything one command needs, built from the config.
type app struct {
	svc     *service.Service
	cart    *cart.Store
	holder  *catalog.Holder
	kv      store.Store
	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, out io.Writer) (*app, error) {
	kv, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a := &app{kv: kv, closers: []io.Closer{kv}}

	h, err := newHandoff(cfg, log, out)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if c, ok := h.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	var gc geo.Geocoder = geo.Nop{}
	if cfg.Geo.APIKey != "" {
		gc = geo.NewGoogleGeocoder(cfg.Geo.BaseURL, cfg.Geo.APIKey, cfg.GetGeoTimeout())
	}

	var archive store.Archive
	if ar, ok := kv.(store.Archive); ok {
		archive = ar
	} else {
		log.Debug("storage driver keeps no order archive", zap.String("driver", cfg.Storage.Driver))
	}

	a.holder = catalog.NewHolder(catalog.Load(ctx, cfg.Catalog.Source, cfg.GetCatalogTimeout(), log))
	a.cart, err = cart.New(ctx, kv, cfg.Storage.Key, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.svc = service.NewService(service.Deps{
		Menu:      a.holder,
		Cart:      a.cart,
		Formatter: order.NewFormatter(cfg.Shop.Name, cfg.Shop.CurrencySymbol, cfg.Handoff.BaseURL, cfg.Handoff.Recipient),
		Handoff:   h,
		Geo:       gc,
		Archive:   archive,
		Currency:  cfg.Shop.CurrencySymbol,
		Log:       log,
	})
	return a, nil
}

// kafkaHandoff closes the writer behind the publisher.
type kafkaHandoff struct {
	*handoff.KafkaPublisher
	io.Closer
}

func newHandoff(cfg *config.Config, log *zap.Logger, out io.Writer) (handoff.Handoff, error) {
	switch cfg.Handoff.Mode {
	case "browser":
		return handoff.NewBrowserOpener(), nil
	case "stdout":
		return handoff.NewWriter(out), nil
	case "kafka":
		w := handoff.NewKafkaWriter(cfg.Handoff.KafkaBrokers)
		return kafkaHandoff{
			KafkaPublisher: handoff.NewKafkaPublisher(log, w, cfg.Handoff.KafkaTopic),
			Closer:         w,
		}, nil
	default:
		return nil, fmt.Errorf("unknown handoff mode %q", cfg.Handoff.Mode)
	}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
