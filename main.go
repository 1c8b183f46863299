package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/chazpawar/ecommerce-follow-along/internal/cart"
	"github.com/chazpawar/ecommerce-follow-along/internal/config"
	"github.com/chazpawar/ecommerce-follow-along/internal/database"
	"github.com/chazpawar/ecommerce-follow-along/internal/handlers"
	"github.com/chazpawar/ecommerce-follow-along/internal/middleware"
	"github.com/chazpawar/ecommerce-follow-along/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}

	cartManager := cart.NewManager(store.NewAccounts(db), store.NewProducts(db))

	r := gin.Default()
	r.Static("/uploads", "./public/uploads")

	api := r.Group("/api")

	api.POST("/users/signup", handlers.Signup(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	api.POST("/users/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))

	api.GET("/products", handlers.GetProducts(db))
	api.GET("/products/:id", handlers.GetProduct(db))

	auth := api.Group("")
	auth.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		auth.GET("/users/me", handlers.GetMe(db))

		auth.GET("/users/addresses", handlers.GetAddresses(db))
		auth.POST("/users/addresses", handlers.CreateAddress(db))
		auth.PUT("/users/addresses/:id", handlers.UpdateAddress(db))
		auth.DELETE("/users/addresses/:id", handlers.DeleteAddress(db))

		auth.POST("/products/create", handlers.CreateProduct(db))
		auth.PUT("/products/:id", handlers.UpdateProduct(db))
		auth.DELETE("/products/:id", handlers.DeleteProduct(db))

		auth.POST("/cart/add", handlers.AddToCart(cartManager))
		auth.GET("/cart", handlers.GetCart(cartManager))
		auth.PUT("/cart/:productId", handlers.UpdateCartItem(cartManager))
		auth.DELETE("/cart/:productId", handlers.RemoveFromCart(cartManager))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
