package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/growcery-api/internal/usecase"
)

type UserHandler struct {
	accounts *usecase.Accounts
}

func NewUserHandler(accounts *usecase.Accounts) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// GET /users/all
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.accounts.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": toUserDTOs(users)})
}

// DELETE /users/:userId
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User account deleted successfully"})
}
