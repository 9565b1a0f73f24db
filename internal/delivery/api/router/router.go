// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"enrollment/internal/delivery/api/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	MemberHandler     *handler.MemberHandler
	CardHandler       *handler.CardHandler
	EnrollmentHandler *handler.EnrollmentHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	memberHandler     *handler.MemberHandler
	cardHandler       *handler.CardHandler
	enrollmentHandler *handler.EnrollmentHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		memberHandler:     params.MemberHandler,
		cardHandler:       params.CardHandler,
		enrollmentHandler: params.EnrollmentHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	apiV1 := e.Group("/api/v1")

	purchasesGroup := apiV1.Group("/plan-purchases/:planPurchaseId")
	{
		purchasesGroup.POST("/members", r.memberHandler.CreateMember)
		purchasesGroup.POST("/members/provision", r.memberHandler.ProvisionMembers)
		purchasesGroup.GET("/members", r.memberHandler.ListMembers)
		purchasesGroup.GET("/enrollment", r.enrollmentHandler.Status)
		purchasesGroup.GET("/wizard", r.enrollmentHandler.WizardCandidates)
	}

	membersGroup := apiV1.Group("/members/:memberId")
	{
		membersGroup.GET("", r.memberHandler.GetMember)
		membersGroup.PATCH("/draft", r.memberHandler.SaveDraft)
		membersGroup.POST("/lock", r.memberHandler.CommitAndLock)
		membersGroup.POST("/card", r.cardHandler.RequestCard)
		membersGroup.GET("/card", r.cardHandler.GetCardByMember)
	}

	apiV1.POST("/cards/verify", r.cardHandler.VerifyCard)

	cardsGroup := apiV1.Group("/cards/:cardId")
	{
		cardsGroup.GET("", r.cardHandler.GetCard)
		cardsGroup.POST("/confirm", r.cardHandler.ConfirmCard)
		cardsGroup.GET("/qr", r.cardHandler.RenderCardQR)
	}

	apiV1.POST("/wizard/commit", r.enrollmentHandler.WizardCommit)
}
