package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wavely/internal/handlers"
	"wavely/internal/logging"
	"wavely/internal/middleware"
	"wavely/internal/services"
)

// Deps 路由需要的服务
type Deps struct {
	Users      *services.UserService
	Ledger     *services.VoteLedger
	Lifecycle  *services.LifecycleManager
	Feed       *services.FeedService
	Moderation *services.ModerationService
	JWTSecret  []byte
	Logger     logging.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Lifecycle, d.JWTSecret, d.Logger)
	waveHandler := handlers.NewWaveHandler(d.Lifecycle, d.Logger)
	postHandler := handlers.NewPostHandler(d.Lifecycle, d.Feed, d.Moderation, d.Logger)
	commentHandler := handlers.NewCommentHandler(d.Lifecycle, d.Feed, d.Logger)
	voteHandler := handlers.NewVoteHandler(d.Ledger, d.Logger)
	moderationHandler := handlers.NewModerationHandler(d.Moderation, d.Logger)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/users", userHandler.SignUp)                   // 注册
	api.POST("/users/login", userHandler.Login)              // 登录
	api.GET("/users/:id/posts", postHandler.ListByUser)      // 用户的帖子
	api.GET("/waves/:id/posts", postHandler.ListByWave)      // Wave 下的帖子
	api.GET("/posts/:id", postHandler.Get)                   // 帖子详情
	api.GET("/posts/:id/comments", commentHandler.ListTop)   // 一级评论（按热度）
	api.GET("/comments/:id/replies", commentHandler.Replies) // 展开回复

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired(d.JWTSecret, d.Users, d.Logger))
	{
		authorized.GET("/users/me", userHandler.Me)              // 个人资料
		authorized.PATCH("/users/me/bio", userHandler.UpdateBio) // 修改简介
		authorized.DELETE("/users/me", userHandler.DeleteMe)     // 注销账号

		authorized.POST("/waves", waveHandler.Create)                      // 创建 Wave
		authorized.DELETE("/waves/:id", waveHandler.Delete)                // 删除 Wave
		authorized.PATCH("/waves/:id/location", waveHandler.SetLocation)   // 设置坐标
		authorized.POST("/waves/:id/posts", postHandler.CreateInWave)      // 在 Wave 中发帖

		authorized.POST("/posts", postHandler.Create)                      // 发帖
		authorized.DELETE("/posts/:id", postHandler.Delete)                // 删除帖子
		authorized.PATCH("/posts/:id/vote", voteHandler.VotePost)          // 帖子投票
		authorized.POST("/posts/:id/classify", postHandler.Classify)       // 帖子机审
		authorized.POST("/posts/:id/comments", commentHandler.Create)      // 发表评论

		authorized.DELETE("/comments/:id", commentHandler.Delete)          // 删除评论
		authorized.PATCH("/comments/:id/vote", voteHandler.VoteComment)    // 评论投票

		authorized.POST("/moderation/classify", moderationHandler.Classify) // 文本机审
	}
}
