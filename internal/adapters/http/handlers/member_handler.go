package handlers

import (
	"strings"

	"devroots-sacco/internal/adapters/persistence/models"
	"devroots-sacco/internal/adapters/persistence/repositories"
	"devroots-sacco/internal/core/domain"
	"devroots-sacco/internal/core/services"
	"devroots-sacco/internal/pkg/pagination"
	"devroots-sacco/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member registry endpoints
type MemberHandler struct {
	memberService     *services.MemberService
	credentialService *services.CredentialService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService, credentialService *services.CredentialService) *MemberHandler {
	return &MemberHandler{
		memberService:     memberService,
		credentialService: credentialService,
	}
}

// ChangeStatusRequest represents a member status change
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// CreateMember registers a member
// @Summary Register member
// @Description Register a member with KYC details, an empty savings account and an optional initial deposit
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateMemberInput true "Member details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *fiber.Ctx) error {
	var req services.CreateMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.memberService.CreateMember(c.Context(), actorFrom(c), req)
	if err != nil {
		return response.FromError(c, err, "Failed to register member")
	}

	return response.Created(c, "Member registered successfully", member.ToResponse())
}

// ListMembers lists members
// @Summary List members
// @Description Search members by number, name, national ID, phone or email
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param status query string false "PENDING, ACTIVE, SUSPENDED or EXITED"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) ListMembers(c *fiber.Ctx) error {
	pg := pageFrom(c)
	filter := repositories.MemberFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
	}

	members, total, err := h.memberService.ListMembers(c.Context(), filter, pg.Window())
	if err != nil {
		return response.FromError(c, err, "Failed to list members")
	}

	items := make([]*models.MemberResponse, len(members))
	for i, m := range members {
		items[i] = m.ToResponse()
	}
	return response.Success(c, "Members retrieved successfully", pagination.NewResponse(items, pg, total))
}

// GetMember returns a member
// @Summary Get member
// @Description Get a member with savings balance
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) GetMember(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	member, err := h.memberService.GetMember(c.Context(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", member)
}

// UpdateMember updates a member's KYC details
// @Summary Update member
// @Description Update KYC fields; omitted fields are unchanged
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body services.UpdateMemberInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) UpdateMember(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	var req services.UpdateMemberInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	member, err := h.memberService.UpdateMember(c.Context(), actorFrom(c), id, req)
	if err != nil {
		return response.FromError(c, err, "Failed to update member")
	}

	return response.Success(c, "Member updated successfully", member.ToResponse())
}

// ChangeStatus changes a member's status
// @Summary Change member status
// @Description Move a member between PENDING, ACTIVE, SUSPENDED and EXITED
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body ChangeStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/status [put]
func (h *MemberHandler) ChangeStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	var req ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	status := domain.MemberStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	member, err := h.memberService.ChangeStatus(c.Context(), actorFrom(c), id, status)
	if err != nil {
		return response.FromError(c, err, "Failed to change member status")
	}

	return response.Success(c, "Member status changed successfully", member.ToResponse())
}

// DeleteMember deletes a member
// @Summary Delete member
// @Description Delete a member with their account, loans and login
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [delete]
func (h *MemberHandler) DeleteMember(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	if err := h.memberService.DeleteMember(c.Context(), actorFrom(c), id); err != nil {
		return response.FromError(c, err, "Failed to delete member")
	}

	return response.Success(c, "Member deleted successfully", nil)
}

// ProvisionCredential creates a login for a member
// @Summary Provision member login
// @Description Create a username and temporary password for a member; the password is shown once
// @Tags Members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id}/credentials [post]
func (h *MemberHandler) ProvisionCredential(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid member ID")
	}

	cred, err := h.credentialService.ProvisionCredential(c.Context(), actorFrom(c), id)
	if err != nil {
		return response.FromError(c, err, "Failed to create member login")
	}

	return response.Created(c, "Member login created successfully", cred)
}
