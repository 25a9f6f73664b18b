package controller

import (
	"strconv"
	"time"

	"quest_edu_backend/internal/service"
	"quest_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	Aggregator      *service.AggregatorService
}

func NewProgressController(progressService *service.ProgressService, aggregator *service.AggregatorService) *ProgressController {
	return &ProgressController{
		ProgressService: progressService,
		Aggregator:      aggregator,
	}
}

// @Summary 获取学习概要
// @Description 获取当前学习者的统计概要：总量、直方图、正确率、连续天数、徽章与奖杯
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /progress [get]
func (c *ProgressController) GetSummary(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.ProgressService.GetSummary(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// @Summary 获取排行榜
// @Description 获取XP排行榜
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response
// @Router /progress/leaderboard [get]
func (c *ProgressController) GetLeaderboard(ctx *gin.Context) {
	limit := 10
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	leaderboard, err := c.ProgressService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}

// @Summary 获取徽章目录
// @Description 获取全部徽章定义及当前学习者的解锁状态
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /progress/badges [get]
func (c *ProgressController) GetBadges(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	statuses, err := c.ProgressService.GetBadgeStatuses(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, statuses)
}

// @Summary 触发概要对账
// @Description 立即对全部学习者执行一轮概要与事件历史的对账，分歧以重放结果覆盖
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /admin/reconcile [post]
func (c *ProgressController) Reconcile(ctx *gin.Context) {
	if err := c.Aggregator.ReconcileAll(time.Now()); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"status": "reconciled"})
}
