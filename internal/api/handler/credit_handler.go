package handler

import (
	"AgentVendor/internal/pkg/response"
	"AgentVendor/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	creditSvc service.CreditService
}

func NewCreditHandler(creditSvc service.CreditService) *CreditHandler {
	return &CreditHandler{creditSvc: creditSvc}
}

func (s *CreditHandler) GetBalance(c *gin.Context) {
	userID := c.GetUint64("user_id")
	balance, err := s.creditSvc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, balance)
}

func (s *CreditHandler) ListTransactions(c *gin.Context) {
	userID := c.GetUint64("user_id")
	page, size := pageParams(c)
	result, err := s.creditSvc.ListTransactions(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListUsageDaily 按天聚合的用量报表，默认最近 30 天
func (s *CreditHandler) ListUsageDaily(c *gin.Context) {
	userID := c.GetUint64("user_id")

	toDay := c.DefaultQuery("to", time.Now().Format("2006-01-02"))
	fromDay := c.DefaultQuery("from", time.Now().AddDate(0, 0, -30).Format("2006-01-02"))

	list, err := s.creditSvc.ListUsageDaily(c.Request.Context(), userID, fromDay, toDay)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
