package app

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const (
	httpReadHeaderTimeout = 10 * time.Second
	httpIdleTimeout       = 90 * time.Second
)

// HTTPService API 服务。
// 关闭时先排空在途请求，再执行 drain 回调停止由请求拉起的后台轮询。
type HTTPService struct {
	name   string
	server *http.Server
	drains []func()
}

// NewHTTPService 创建 API 服务，drains 在请求排空后按顺序执行
func NewHTTPService(addr string, handler http.Handler, drains ...func()) *HTTPService {
	return &HTTPService{
		name: "http",
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: httpReadHeaderTimeout,
			IdleTimeout:       httpIdleTimeout,
		},
		drains: drains,
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	if s == nil || s.name == "" {
		return "http"
	}
	return s.name
}

// Start 阻塞监听，Stop 触发的关闭不视为错误
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop 排空请求后停止后台轮询；超时仍会执行 drain
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	for _, drain := range s.drains {
		if drain != nil {
			drain()
		}
	}
	return err
}
