package handlers

import (
	"net/http"

	"github.com/fixify/fixify-server/internal/models"
	"github.com/fixify/fixify-server/internal/services"
	"github.com/gin-gonic/gin"
)

func Signup(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.Registration
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		user, err := u.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(user, "account created successfully"))
	}
}

func Login(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
			return
		}

		token, user, err := u.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			// Bad credentials always read the same regardless of which check failed.
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid email or password"))
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"token": token,
			"user":  user,
		}, "logged in successfully"))
	}
}
