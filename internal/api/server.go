package api

import "github.com/RoyceAzure/lab/marketplace/internal/api/handler"

type Server struct {
	UserHandler  *handler.UserHandler
	PostHandler  *handler.PostHandler
	CartHandler  *handler.CartHandler
	OrderHandler *handler.OrderHandler
}

func NewServer(
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
) *Server {
	return &Server{
		UserHandler:  userHandler,
		PostHandler:  postHandler,
		CartHandler:  cartHandler,
		OrderHandler: orderHandler,
	}
}
