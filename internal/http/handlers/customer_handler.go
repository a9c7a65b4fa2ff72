package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/musicstore-support/internal/dto"
	"github.com/ignatzorin/musicstore-support/internal/http/handlers/common"
	"github.com/ignatzorin/musicstore-support/internal/models"
	"github.com/ignatzorin/musicstore-support/internal/service"
	"github.com/ignatzorin/musicstore-support/internal/ws"
)

// CustomerHandler отдаёт профиль, историю покупок и проводит
// верифицированные изменения аккаунта в обход чата.
type CustomerHandler struct {
	accounts     *service.AccountService
	verification *service.VerificationService
	catalog      *service.CatalogService
	hub          *ws.Hub
}

func NewCustomerHandler(accounts *service.AccountService, verification *service.VerificationService, catalog *service.CatalogService, hub *ws.Hub) *CustomerHandler {
	return &CustomerHandler{
		accounts:     accounts,
		verification: verification,
		catalog:      catalog,
		hub:          hub,
	}
}

// Get обрабатывает GET /api/customer. Телефон отдаётся только в маске.
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, err := common.CurrentCustomerID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	customer, err := h.accounts.GetProfile(c.Request.Context(), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.CustomerResponse{
		ID:          customer.ID,
		Name:        customer.FullName(),
		Email:       customer.Email,
		MaskedPhone: customer.MaskedPhone(),
		Address:     customer.Address,
		City:        customer.City,
		State:       customer.State,
		PostalCode:  customer.PostalCode,
		Country:     customer.Country,
		CreatedAt:   customer.CreatedAt,
	})
}

// PurchaseHistory обрабатывает GET /api/customer/purchases.
func (h *CustomerHandler) PurchaseHistory(c *gin.Context) {
	customerID, err := common.CurrentCustomerID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	invoices, err := h.catalog.PurchaseHistory(c.Request.Context(), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// InvoiceDetails обрабатывает GET /api/customer/purchases/:invoiceId.
func (h *CustomerHandler) InvoiceDetails(c *gin.Context) {
	customerID, err := common.CurrentCustomerID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	invoiceID, err := strconv.ParseInt(c.Param("invoiceId"), 10, 64)
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор счёта")
		return
	}

	lines, err := h.catalog.InvoiceDetails(c.Request.Context(), customerID, invoiceID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice_id": invoiceID, "lines": lines})
}

// SpendingSummary обрабатывает GET /api/customer/spending.
func (h *CustomerHandler) SpendingSummary(c *gin.Context) {
	customerID, err := common.CurrentCustomerID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	summary, err := h.catalog.SpendingSummary(c.Request.Context(), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RequestVerification обрабатывает POST /api/customer/verification/request:
// отправляет SMS с кодом на телефон из профиля.
func (h *CustomerHandler) RequestVerification(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	result, err := h.verification.RequestVerification(c.Request.Context(), sessionID)
	if err != nil {
		status, resp := verificationErrorResponse(err)
		if status == 0 {
			_ = c.Error(err)
			return
		}
		c.JSON(status, resp)
		return
	}

	h.hub.BroadcastToSession(sessionID, ws.EventVerification, gin.H{"status": models.VerificationStateCodeSent})

	resp := dto.VerificationResponse{
		Status:      "code_sent",
		MaskedPhone: result.MaskedPhone,
		Message:     "A verification code was sent to the phone number on file.",
	}
	if result.DemoCode != "" {
		resp.DemoCode = result.DemoCode
		resp.Message = "Demo mode: no SMS was sent. Use the code from this response."
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmVerification обрабатывает POST /api/customer/verification/confirm.
func (h *CustomerHandler) ConfirmVerification(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.ConfirmCodeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, "код обязателен")
		return
	}

	if err := h.verification.ConfirmCode(c.Request.Context(), sessionID, req.Code); err != nil {
		status, resp := verificationErrorResponse(err)
		if status == 0 {
			_ = c.Error(err)
			return
		}
		c.JSON(status, resp)
		return
	}

	h.hub.BroadcastToSession(sessionID, ws.EventVerification, gin.H{"status": models.VerificationStateVerified})

	c.JSON(http.StatusOK, dto.VerificationResponse{
		Status:  "verified",
		Message: "Identity confirmed. Account changes are now unlocked for this session.",
	})
}

// UpdateEmail обрабатывает PUT /api/customer/email. Требует верификации.
func (h *CustomerHandler) UpdateEmail(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	customerID, err := common.CurrentCustomerID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateEmailRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, "email обязателен")
		return
	}

	if err := h.accounts.UpdateEmail(c.Request.Context(), sessionID, customerID, req.Email); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "email обновлён"})
}

// UpdateAddress обрабатывает PUT /api/customer/address. Требует верификации.
func (h *CustomerHandler) UpdateAddress(c *gin.Context) {
	sessionID, err := common.CurrentSessionID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	customerID, err := common.CurrentCustomerID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.UpdateAddressRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, "адрес и город обязательны")
		return
	}

	addr := models.MailingAddress{
		Address:    req.Address,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
	if err := h.accounts.UpdateMailingAddress(c.Request.Context(), sessionID, customerID, addr); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "адрес обновлён"})
}

// verificationErrorResponse переводит ошибки сервиса верификации в ответ API.
// Нулевой статус означает, что ошибка не верификационная.
func verificationErrorResponse(err error) (int, dto.VerificationResponse) {
	switch {
	case errors.Is(err, service.ErrNoPhoneOnFile):
		return http.StatusConflict, dto.VerificationResponse{
			Status:  "no_phone",
			Message: "There is no phone number on file for this account.",
		}
	case errors.Is(err, service.ErrResendThrottled):
		return http.StatusTooManyRequests, dto.VerificationResponse{
			Status:  "throttled",
			Message: "Too many code requests. Please wait before requesting another code.",
		}
	case errors.Is(err, service.ErrDeliveryFailed):
		return http.StatusBadGateway, dto.VerificationResponse{
			Status:  "delivery_failed",
			Message: "The SMS could not be delivered. Please try again.",
		}
	case errors.Is(err, service.ErrNoActiveCode):
		return http.StatusConflict, dto.VerificationResponse{
			Status:  "no_active_code",
			Message: "No active code. Request a new verification code first.",
		}
	case errors.Is(err, service.ErrCodeExpired):
		return http.StatusGone, dto.VerificationResponse{
			Status:  "expired",
			Message: "The code has expired. Request a new one.",
		}
	case errors.Is(err, service.ErrCodeMismatch):
		return http.StatusUnprocessableEntity, dto.VerificationResponse{
			Status:  "mismatch",
			Message: "That code is not correct. Please try again.",
		}
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests, dto.VerificationResponse{
			Status:  "too_many_attempts",
			Message: "Too many incorrect attempts. Request a new code to start over.",
		}
	}
	return 0, dto.VerificationResponse{}
}
