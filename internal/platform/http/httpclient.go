package http

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig は外部API用HTTPクライアントの接続設定です。
// ゼロ値のフィールドは DefaultClientConfig の値で補われます。
type ClientConfig struct {
	Timeout             time.Duration // リクエスト全体
	DialTimeout         time.Duration // TCP接続
	TLSHandshakeTimeout time.Duration
	KeepAlive           time.Duration
	MaxIdleConns        int
	IdleConnTimeout     time.Duration
}

// DefaultClientConfig は指定したリクエストタイムアウトで既定の接続設定を返します。
func DefaultClientConfig(timeout time.Duration) ClientConfig {
	return ClientConfig{
		Timeout:             timeout,
		DialTimeout:         5 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		KeepAlive:           30 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
}

// withDefaults は未設定のフィールドを既定値で埋めます。
func (c ClientConfig) withDefaults() ClientConfig {
	def := DefaultClientConfig(c.Timeout)
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.TLSHandshakeTimeout <= 0 {
		c.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = def.KeepAlive
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = def.MaxIdleConns
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = def.IdleConnTimeout
	}
	return c
}

// NewHTTPClient は外部API呼び出し用のHTTPクライアントを作成します。
// http.DefaultClientにはタイムアウトがないため、外部呼び出しには常にこちらを使用します。
// プロキシは環境変数（HTTP_PROXYなど）に従います。
func NewHTTPClient(cfg ClientConfig) *http.Client {
	cfg = cfg.withDefaults()
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: t}
}
