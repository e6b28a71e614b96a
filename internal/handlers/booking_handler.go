package handlers

import (
	"net/http"

	"github.com/fixify/fixify-server/internal/models"
	"github.com/fixify/fixify-server/internal/services"
	"github.com/gin-gonic/gin"
)

func CreateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var in services.BookingCreate
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		view, err := b.Create(c.Request.Context(), actor, in)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.SuccessResponse(view, "booking created successfully"))
	}
}

func ListBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}

		var q models.BookingQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid query parameters"))
			return
		}

		views, page, total, err := b.List(c.Request.Context(), actor, q)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.PaginatedResponse(views, page, total, len(views)))
	}
}

func GetBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		view, err := b.Get(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(view, ""))
	}
}

func UpdateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		var in services.BookingUpdate
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		view, err := b.Update(c.Request.Context(), actor, id, in)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(view, "booking updated successfully"))
	}
}

func CancelBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		view, err := b.Cancel(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(view, "booking cancelled"))
	}
}

type assignRequest struct {
	ContractorID string `json:"contractor_id"`
}

func AssignContractor(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		var in assignRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		view, err := b.Assign(c.Request.Context(), actor, id, in.ContractorID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(view, "contractor assigned"))
	}
}

func RejectBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		// Contractors reject as themselves; admins may name another contractor.
		var in assignRequest
		if err := c.ShouldBindJSON(&in); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}
		if in.ContractorID == "" {
			in.ContractorID = actor.ID.Hex()
		}

		view, err := b.Reject(c.Request.Context(), actor, id, in.ContractorID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(view, "booking rejected"))
	}
}

func DeleteBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		if err := b.Delete(c.Request.Context(), actor, id); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SuccessResponse(nil, "booking deleted successfully"))
	}
}

func ListBookingsByCustomer(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		customerID, ok := pathID(c, "customer_id")
		if !ok {
			return
		}

		var q models.BookingQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid query parameters"))
			return
		}

		views, page, total, err := b.ListForCustomer(c.Request.Context(), actor, customerID, q)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.PaginatedResponse(views, page, total, len(views)))
	}
}

func ListBookingsByContractor(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		contractorID, ok := pathID(c, "contractor_id")
		if !ok {
			return
		}

		var q models.BookingQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid query parameters"))
			return
		}

		views, page, total, err := b.ListForContractor(c.Request.Context(), actor, contractorID, q)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.PaginatedResponse(views, page, total, len(views)))
	}
}

func ListRejectedByContractor(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		contractorID, ok := pathID(c, "contractor_id")
		if !ok {
			return
		}

		var q models.BookingQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid query parameters"))
			return
		}

		views, page, total, err := b.ListRejectedForContractor(c.Request.Context(), actor, contractorID, q)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.PaginatedResponse(views, page, total, len(views)))
	}
}
