package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	WaterPoint *WaterPointHandler
	Feedback   *FeedbackHandler
	Hydration  *HydrationHandler
	Metrics    *MetricsHandler
}

// Register mounts the API routes on r. authGate guards protected routes;
// credentialLimit, when non-nil, throttles register and login.
func Register(r gin.IRouter, h Handlers, authGate gin.HandlerFunc, credentialLimit gin.HandlerFunc) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	limited := func(next gin.HandlerFunc) []gin.HandlerFunc {
		if credentialLimit == nil {
			return []gin.HandlerFunc{next}
		}
		return []gin.HandlerFunc{credentialLimit, next}
	}

	user := r.Group("/user")
	user.POST("/register", limited(h.Auth.Register)...)
	user.POST("/login", limited(h.Auth.Login)...)
	user.GET("/logged", authGate, h.Users.Logged)
	user.PUT("", authGate, h.Users.UpdateProfile)
	user.GET("", h.Users.List)
	user.DELETE("", authGate, h.Users.Delete)

	points := r.Group("/waterPoint")
	points.POST("", h.WaterPoint.Create)
	points.GET("", h.WaterPoint.List)
	points.GET("/nearby", h.WaterPoint.Nearby)
	points.GET("/:id", h.WaterPoint.Get)
	points.PUT("/:id", authGate, h.WaterPoint.UpdateMaintenance)
	points.DELETE("/:id", h.WaterPoint.Delete)

	feedback := r.Group("/feedback")
	feedback.GET("", h.Feedback.List)
	feedback.GET("/images/:token", h.Feedback.Image)
	feedback.GET("/:waterPoint_id", h.Feedback.ListByPoint)
	feedback.POST("/:user_email/:waterPoint_id", authGate, h.Feedback.Create)
	feedback.DELETE("/:point_id", authGate, h.Feedback.Delete)

	intake := r.Group("/waterIntake", authGate)
	intake.POST("", h.Hydration.LogIntake)
	intake.GET("", h.Hydration.Intakes)
	intake.GET("/today/total", h.Hydration.TodayTotal)
	intake.GET("/export", h.Hydration.Export)

	goal := r.Group("/waterGoal", authGate)
	goal.GET("/current", h.Hydration.CurrentGoal)
	goal.POST("", h.Hydration.SetGoal)

	favorites := r.Group("/favorites", authGate)
	favorites.GET("", h.Hydration.Favorites)
	favorites.POST("/:pointId", h.Hydration.AddFavorite)
	favorites.DELETE("/:pointId", h.Hydration.RemoveFavorite)
}
