package handlers

import (
	"errors"
	"strings"

	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/rank"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/core/services"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/pagination"
	"github.com/HirokiTakaya/BJJ-Dojo-Manager-sub002/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles roster and grading endpoints
type MemberHandler struct {
	memberService    *services.MemberService
	promotionService *services.PromotionService
	authService      *services.AuthService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(
	memberService *services.MemberService,
	promotionService *services.PromotionService,
	authService *services.AuthService,
) *MemberHandler {
	return &MemberHandler{
		memberService:    memberService,
		promotionService: promotionService,
		authService:      authService,
	}
}

// gymID pulls the caller's gym from the authenticated user
func (h *MemberHandler) gymID(c *fiber.Ctx) (uint, error) {
	return authedGymID(c, h.authService)
}

// Create handles roster registration
// @Summary Add member to roster
// @Description Register a new member, guarded by the plan's member quota
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateMemberInput true "Member data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 402 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}

	var input services.CreateMemberInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(input.MemberNo) == "" {
		return response.BadRequest(c, "Member number is required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return response.BadRequest(c, "First and last name are required")
	}

	member, err := h.memberService.Create(c.Context(), gymID, &input)
	if err != nil {
		var quotaErr *services.QuotaError
		switch {
		case errors.As(err, &quotaErr):
			return response.PaymentRequired(c, quotaErr.Error())
		case errors.Is(err, services.ErrMemberNoTaken):
			return response.Conflict(c, "Member number already in roster")
		case errors.Is(err, rank.ErrUnknownBelt), errors.Is(err, rank.ErrInvalidTarget):
			return response.BadRequest(c, "Invalid initial grade")
		default:
			return response.InternalServerError(c, "Failed to add member")
		}
	}

	return response.Created(c, "Member added to roster", member.ToResponse())
}

// List handles roster listing
// @Summary List roster
// @Description List the gym's members with belt and search filters
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param belt query string false "Belt code filter"
// @Param search query string false "Name or member number search"
// @Param active query bool false "Active filter"
// @Success 200 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}

	params := pagination.GetParams(c)
	input := &services.MemberListInput{
		Page:     params.Page,
		Limit:    params.Limit,
		BeltCode: strings.ToUpper(c.Query("belt")),
		Search:   c.Query("search"),
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true" || raw == "1"
		input.Active = &active
	}

	result, err := h.memberService.List(c.Context(), gymID, input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list members")
	}

	return response.Success(c, "Roster retrieved successfully", result)
}

// Get handles single member lookup
// @Summary Get member
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	member, err := h.memberService.GetByID(c.Context(), gymID, uint(memberID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound), errors.Is(err, services.ErrNotAuthorized):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to get member")
		}
	}

	return response.Success(c, "Member retrieved successfully", member.ToResponse())
}

// Update handles roster contact updates
// @Summary Update member
// @Description Update roster contact fields; grades move only through promotions
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body services.UpdateMemberInput true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	var input services.UpdateMemberInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.memberService.Update(c.Context(), gymID, uint(memberID), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound), errors.Is(err, services.ErrNotAuthorized):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to update member")
		}
	}

	return response.Success(c, "Member updated successfully", member.ToResponse())
}

// Delete handles roster removal
// @Summary Remove member
// @Description Soft delete a roster member; grading history stays on record
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [delete]
func (h *MemberHandler) Delete(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	if err := h.memberService.Delete(c.Context(), gymID, uint(memberID)); err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound), errors.Is(err, services.ErrNotAuthorized):
			return response.NotFound(c, "Member not found")
		default:
			return response.InternalServerError(c, "Failed to remove member")
		}
	}

	return response.Success(c, "Member removed from roster", nil)
}

// GetRank handles current grade + next eligible lookup
// @Summary Get member rank
// @Description Current grade plus the canonical next eligible grade
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/rank [get]
func (h *MemberHandler) GetRank(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	// Scope the member to the caller's gym before touching history
	if _, err := h.memberService.GetByID(c.Context(), gymID, uint(memberID)); err != nil {
		return response.NotFound(c, "Member not found")
	}

	result, err := h.promotionService.NextEligible(c.Context(), uint(memberID))
	if err != nil {
		return response.InternalServerError(c, "Failed to get rank")
	}

	return response.Success(c, "Rank retrieved successfully", result)
}

// ListPromotions handles grading history lookup
// @Summary Get member promotion history
// @Tags Promotions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/promotions [get]
func (h *MemberHandler) ListPromotions(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}
	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	if _, err := h.memberService.GetByID(c.Context(), gymID, uint(memberID)); err != nil {
		return response.NotFound(c, "Member not found")
	}

	promotions, err := h.promotionService.History(c.Context(), uint(memberID))
	if err != nil {
		return response.InternalServerError(c, "Failed to get promotion history")
	}

	responses := make([]interface{}, 0, len(promotions))
	for _, promotion := range promotions {
		responses = append(responses, promotion.ToResponse())
	}
	return response.Success(c, "Promotion history retrieved", responses)
}

// Promote handles a grading
// @Summary Promote member
// @Description Apply a belt or stripe award to a roster member
// @Tags Promotions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body services.PromoteInput true "Target grade"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members/{id}/promotions [post]
func (h *MemberHandler) Promote(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	performer, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	memberID, err := c.ParamsInt("id")
	if err != nil || memberID < 1 {
		return response.BadRequest(c, "Invalid member ID")
	}

	var input services.PromoteInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(input.ToBelt) == "" {
		return response.BadRequest(c, "Target belt is required")
	}

	result, err := h.promotionService.Promote(c.Context(), uint(memberID), &input, performer, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound), errors.Is(err, services.ErrNotAuthorized):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrMemberInactive):
			return response.Conflict(c, "Member is inactive")
		case errors.Is(err, rank.ErrUnknownBelt), errors.Is(err, rank.ErrInvalidTarget):
			return response.BadRequest(c, "Invalid target grade")
		case errors.Is(err, rank.ErrNoChange):
			return response.Conflict(c, "Member already holds this grade")
		default:
			return response.InternalServerError(c, "Failed to promote member")
		}
	}

	if result.Replayed {
		return response.Success(c, "Promotion already recorded", result.Promotion.ToResponse())
	}
	return response.Created(c, "Member promoted", result.Promotion.ToResponse())
}

// RecentPromotions handles the gym-wide grading feed
// @Summary List gym promotions
// @Tags Promotions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /promotions [get]
func (h *MemberHandler) RecentPromotions(c *fiber.Ctx) error {
	gymID, err := h.gymID(c)
	if err != nil {
		return err
	}

	params := pagination.GetParams(c)
	promotions, total, err := h.promotionService.ListByGym(c.Context(), gymID, params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list promotions")
	}

	responses := make([]interface{}, 0, len(promotions))
	for _, promotion := range promotions {
		responses = append(responses, promotion.ToResponse())
	}
	return response.Success(c, "Promotions retrieved successfully", pagination.NewResponse(responses, params, total))
}
