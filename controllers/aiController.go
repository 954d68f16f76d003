package controllers

import (
	"net/http"

	"github.com/JayJosh846/wishy/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AskRequest struct {
	Question string `json:"question"`
}

type AIController struct {
	AIService services.AIService
	log       *logrus.Logger
}

func AIConstructor(aiService services.AIService, log *logrus.Logger) AIController {
	return AIController{
		AIService: aiService,
		log:       log,
	}
}

func (ac *AIController) Ask(c *gin.Context) {
	var req AskRequest
	if !bind(c, &req, c.ShouldBindJSON) {
		return
	}
	answer, err := ac.AIService.Ask(c.Request.Context(), req.Question)
	if err != nil {
		fail(c, ac.log, err)
		return
	}
	respond(c, http.StatusOK, "Answer ready", gin.H{"answer": answer})
}

func (ac *AIController) AIRoutes(rg *gin.RouterGroup) {
	rg.Group("/ai").POST("/ask", ac.Ask)
}
