package router

import (
	"net/http"

	"campuslink/internal/clock"
	"campuslink/internal/handlers"
	"campuslink/internal/middleware"
	"campuslink/internal/realtime"
	"campuslink/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the services the HTTP surface is wired to.
type Deps struct {
	Calendar      *clock.Calendar
	Users         *services.UserService
	Eligibility   *services.EligibilityService
	Reputation    *services.ReputationService
	Reports       *services.ReportService
	Shuttle       *services.ShuttleService
	Taxi          *services.TaxiService
	Notifications *services.NotificationService
	Hub           *realtime.Hub
	Logger        *zap.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	userHandler := handlers.NewUserHandler(d.Reputation, d.Calendar, d.Logger)
	reputationHandler := handlers.NewReputationHandler(d.Eligibility, d.Reputation, d.Logger)
	reportHandler := handlers.NewReportHandler(d.Reports, d.Logger)
	shuttleHandler := handlers.NewShuttleHandler(d.Shuttle, d.Hub, d.Logger)
	taxiHandler := handlers.NewTaxiHandler(d.Taxi, d.Logger)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications, d.Logger)
	adminHandler := handlers.NewAdminHandler(d.Reports, d.Logger)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// 인증 필요 라우트
	authorized := r.Group("/")
	authorized.Use(middleware.LoadUser(d.Users, d.Notifications, d.Logger), middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)            // 내 프로필
		authorized.GET("/me/ledger", userHandler.Ledger) // 받은 평판 내역
		authorized.GET("/me/notifications", notificationHandler.List)
		authorized.POST("/me/notifications/:id/read", notificationHandler.Read)    // 단건 읽음
		authorized.POST("/me/notifications/read-all", notificationHandler.ReadAll) // 전체 읽음
		authorized.DELETE("/me/notifications/:id", notificationHandler.Delete)

		authorized.GET("/reputation/eligibility", reputationHandler.Eligibility) // 지급 가능 여부
		authorized.POST("/reputation/grants", reputationHandler.Grant)           // 평판 지급
		authorized.POST("/market/reviews", reputationHandler.Review)             // 거래 후기

		authorized.POST("/reports", reportHandler.Create) // 신고

		authorized.GET("/shuttle/slots", shuttleHandler.Slots)             // 시간표와 예약 상태
		authorized.POST("/shuttle/reservations", shuttleHandler.Reserve)   // 예약
		authorized.DELETE("/shuttle/reservations", shuttleHandler.Cancel) // 취소
		authorized.GET("/ws/shuttle", shuttleHandler.Stream)               // 실시간 좌석 수

		authorized.GET("/taxi/parties", taxiHandler.List)
		authorized.POST("/taxi/parties", taxiHandler.Create)
		authorized.POST("/taxi/parties/:id/join", taxiHandler.Join)
		authorized.POST("/taxi/parties/:id/leave", taxiHandler.Leave)
		authorized.DELETE("/taxi/parties/:id", taxiHandler.Delete)
		authorized.POST("/taxi/parties/:id/finalize", taxiHandler.Finalize) // 정산
	}

	// 관리자 라우트
	admin := r.Group("/admin")
	admin.Use(middleware.LoadUser(d.Users, d.Notifications, d.Logger), middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/reports", adminHandler.ListReports) // 신고 목록
	}
}
