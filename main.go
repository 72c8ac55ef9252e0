package main

import (
	"context"
	"log"
	"os"

	"booking-clone-server/routes"
	"booking-clone-server/services"
	"booking-clone-server/storage"
	"booking-clone-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	routes.Bookings = services.NewBookingService(storage.DB, storage.Redis, services.NewPropertyClient())

	// React to payment facts and re-drive any facts a crash left unpublished.
	go services.ConsumePaymentEvents(context.Background(), storage.DB, storage.Redis)
	go services.PublishOutbox(context.Background(), storage.DB, storage.Redis)

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// Tokens are issued by the external user service; this core only
	// verifies them.
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})
	app.Get("/metrics", iris.FromStd(promhttp.Handler()))

	bookings := app.Party("/api/bookings", accessTokenVerifierMiddleware)
	{
		bookings.Get("/", routes.ListBookings)
		bookings.Post("/", routes.CreateBooking)
		bookings.Post("/calculate-price", routes.CalculateBookingPrice)
		bookings.Get("/{id:uint}", routes.GetBooking)
		bookings.Put("/{id:uint}", routes.UpdateBooking)
		bookings.Post("/{id:uint}/confirm", routes.ConfirmBooking)
		bookings.Post("/{id:uint}/decline", routes.DeclineBooking)
		bookings.Post("/{id:uint}/cancel", routes.CancelBooking)
		bookings.Post("/{id:uint}/checkin", routes.CheckInBooking)
		bookings.Post("/{id:uint}/checkout", routes.CheckOutBooking)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("Booking service listening on port", port)
	app.Listen(":" + port)
}
