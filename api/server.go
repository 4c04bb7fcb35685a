package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stellarlinkco/lm-harness/internal/config"
	"github.com/stellarlinkco/lm-harness/internal/leaderboard"
	"github.com/stellarlinkco/lm-harness/internal/llm"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	registry *llm.Registry
	lbStore  *leaderboard.Store
}

func NewServer(cfg *config.Config, registry *llm.Registry, lbStore *leaderboard.Store) (*Server, error) {
	r := gin.New()
	s := &Server{
		router:   r,
		config:   cfg,
		registry: registry,
		lbStore:  lbStore,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
