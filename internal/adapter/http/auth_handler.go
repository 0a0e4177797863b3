package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/growcery-api/internal/usecase"
)

type AuthHandler struct {
	accounts *usecase.Accounts
}

func NewAuthHandler(accounts *usecase.Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type signupReq struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	token, err := h.accounts.Signup(c.Request.Context(), usecase.SignupInput{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}
