package postgres

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/jhoicas/pvp-api/pkg/config"
)

// NewPool abre el pool de las tablas de compras, mermas, productos, escandallos
// y márgenes, y comprueba la conexión con un ping.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// PoolConfig traduce DBConfig a la configuración de pgxpool: DSN, tamaño,
// tiempos de vida, codec NUMERIC → decimal y, si se pide, dial por IPv4.
func PoolConfig(cfg config.DBConfig) (*pgxpool.Config, error) {
	if cfg.MaxConns < 0 || cfg.MaxConns > config.MaxDBConns {
		return nil, fmt.Errorf("postgres: MaxConns %d fuera de rango (0..%d)", cfg.MaxConns, config.MaxDBConns)
	}
	if cfg.MinConns < 0 || (cfg.MaxConns > 0 && cfg.MinConns > cfg.MaxConns) {
		return nil, fmt.Errorf("postgres: MinConns %d fuera de rango", cfg.MinConns)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	if cfg.ForceIPv4 {
		poolConfig.ConnConfig.DialFunc = newIPv4Dialer(cfg.FallbackResolver).DialContext
	}
	return poolConfig, nil
}

// ipv4Dialer conecta por tcp4 a la primera IPv4 del host. Si no hay ninguna
// usa el dial normal.
type ipv4Dialer struct {
	resolvers []*net.Resolver
	dialer    net.Dialer
}

func newIPv4Dialer(fallback string) *ipv4Dialer {
	d := &ipv4Dialer{resolvers: []*net.Resolver{net.DefaultResolver}}
	if fallback == "" {
		return d
	}
	if _, _, err := net.SplitHostPort(fallback); err != nil {
		fallback = net.JoinHostPort(fallback, "53")
	}
	d.resolvers = append(d.resolvers, &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var nd net.Dialer
			return nd.DialContext(ctx, "udp", fallback)
		},
	})
	return d
}

func (d *ipv4Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := d.resolve(ctx, host)
	if err != nil {
		return d.dialer.DialContext(ctx, network, addr)
	}
	return d.dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}

func (d *ipv4Dialer) resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("postgres: %s es IPv6", host)
	}
	lastErr := fmt.Errorf("postgres: sin IPv4 para %s", host)
	for _, r := range d.resolvers {
		ips, err := r.LookupIP(ctx, "ip4", host)
		if err != nil {
			lastErr = err
			continue
		}
		if len(ips) > 0 {
			return ips[0].String(), nil
		}
	}
	return "", lastErr
}
