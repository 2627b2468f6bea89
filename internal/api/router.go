package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/api/handler"
	"github.com/pruthvir7/ParkingManagement/internal/api/middleware"
	"github.com/pruthvir7/ParkingManagement/internal/repository"
)

type RouterDeps struct {
	Tracks     handler.TrackSource
	Lot        string
	Slot       string
	Store      *repository.Store
	Validator  handler.EntryValidator
	Recognizer handler.Recognizer
	Enhancer   handler.Enhancer
	WebSocket  *handler.WebSocketManager
	Logger     *zap.SugaredLogger
}

// SetupRouter builds the read-mostly HTTP surface. Routes whose dependency is nil
// are not registered.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.WebSocket != nil {
		wsHandler := handler.NewWebSocketHandler(deps.WebSocket)
		r.GET("/ws", wsHandler.HandleWebSocket)
	}

	v1 := r.Group("/api/v1")
	{
		if deps.Tracks != nil {
			trackH := handler.NewTrackHandler(deps.Tracks, deps.Lot, deps.Slot)
			v1.GET("/tracks", trackH.GetTracks)
		}

		if deps.Store != nil {
			sessionH := handler.NewParkingSessionHandler(deps.Store.Sessions)
			sessionRoutes := v1.Group("/sessions")
			{
				sessionRoutes.GET("", sessionH.FindParkingSessions)
				sessionRoutes.GET("/:uid", sessionH.GetParkingSessionByUID)
			}

			entryH := handler.NewEntryHandler(deps.Validator, deps.Store.EntryChecks, deps.Store.Reservations)
			if deps.Validator != nil {
				v1.POST("/entries/validate", entryH.ValidateEntry)
			}
			v1.GET("/entries", entryH.GetRecentEntries)
			v1.POST("/reservations", entryH.CreateReservation)
		}

		if deps.Recognizer != nil {
			lprH := handler.NewLPRHandler(deps.Recognizer, deps.Enhancer)
			v1.POST("/lpr/process-image", lprH.ProcessImage)
		}
	}
	return r
}
