// Package testsite serves local doubles of the shop demo and the MNP Admin
// Portal. They reproduce the DOM the page objects drive (roles, test ids,
// react-select markup, modals and validation messages) so suites can run
// offline with E2E_TARGET=local.
package testsite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/oloid-qa/e2e/internal/obs"
)

//go:embed templates static
var assets embed.FS

// Default admin credentials, matching the portal's QA environment.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin@123"
)

// Options configures Start.
type Options struct {
	AdminUsername string
	AdminPassword string
	// Addr is the listen host; empty means 127.0.0.1.
	Addr string
}

// Sites is a running pair of doubles.
type Sites struct {
	ShopURL  string
	AdminURL string
	Portal   *Portal
	Shop     *Shop

	servers []*http.Server
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// Start serves both sites on ephemeral ports.
func Start(opts Options) (*Sites, error) {
	if opts.AdminUsername == "" {
		opts.AdminUsername = DefaultAdminUsername
	}
	if opts.AdminPassword == "" {
		opts.AdminPassword = DefaultAdminPassword
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1"
	}

	shop, err := NewShop()
	if err != nil {
		return nil, fmt.Errorf("failed to build shop: %w", err)
	}
	portal := NewPortal()
	admin, err := NewAdmin(portal, opts.AdminUsername, opts.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to build admin portal: %w", err)
	}

	s := &Sites{Portal: portal, Shop: shop}
	if s.ShopURL, err = s.serve(opts.Addr, shop.Handler()); err != nil {
		return nil, err
	}
	if s.AdminURL, err = s.serve(opts.Addr, admin.Handler()); err != nil {
		s.Close()
		return nil, err
	}
	obs.Pkg("testsite").Info("testsite_started", "shop_url", s.ShopURL, "admin_url", s.AdminURL)
	return s, nil
}

func (s *Sites) serve(host string, h http.Handler) (string, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.servers = append(s.servers, srv)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Pkg("testsite").Error("testsite_serve_failed", "addr", ln.Addr().String(), "error", err)
		}
	}()
	return "http://" + ln.Addr().String() + "/", nil
}

// Close shuts both servers down.
func (s *Sites) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range s.servers {
		if err := srv.Shutdown(ctx); err != nil {
			obs.Pkg("testsite").Warn("testsite_shutdown_failed", "error", err)
		}
	}
}
