package users

import (
	"errors"

	"go_crm/internal/auth"
	"go_crm/internal/httpx"
	"go_crm/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list users request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Username string `form:"username"`
	Role     string `form:"role"`
}

// CreateRequest represents create user request
type CreateRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// UpdateRequest represents update user request
type UpdateRequest struct {
	ID       int     `json:"id" binding:"required"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
}

// DeleteRequest represents delete users request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// Handler handles users API
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func validRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleManager, model.RoleViewer:
		return true
	}
	return false
}

// List handles GET /api/v1/users
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 15
	}

	query := h.db.Model(&model.User{})
	if req.Username != "" {
		query = query.Where("username LIKE ?", "%"+req.Username+"%")
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count users", err))
		return
	}

	var users []model.User
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("id ASC").Find(&users).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch users", err))
		return
	}

	httpx.OKItems(c, users, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/users/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleViewer
	}
	if !validRole(role) {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid role"))
		return
	}

	var count int64
	if err := h.db.Model(&model.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to check username uniqueness", err))
		return
	}
	if count > 0 {
		httpx.FailErr(c, httpx.ErrAlreadyExists("username already exists"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to hash password", err))
		return
	}

	user := model.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	if err := h.db.Create(&user).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create user", err))
		return
	}

	httpx.OK(c, user)
}

// Update handles POST /api/v1/users/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var user model.User
	if err := h.db.First(&user, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("user not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch user", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			httpx.FailErr(c, httpx.ErrParamInvalid("password too short"))
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to hash password", err))
			return
		}
		updates["password_hash"] = hash
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid role"))
			return
		}
		updates["role"] = *req.Role
	}
	if req.Status != nil {
		switch model.UserStatus(*req.Status) {
		case model.UserStatusActive, model.UserStatusInactive:
			updates["status"] = *req.Status
		default:
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid status"))
			return
		}
	}
	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update user", err))
			return
		}
	}

	httpx.OK(c, user)
}

// Delete handles POST /api/v1/users/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	// The caller cannot remove their own account
	if uid, ok := c.Get("uid"); ok {
		for _, id := range req.IDs {
			if id == uid.(int) {
				httpx.FailErr(c, httpx.ErrStateConflict("cannot delete own account"))
				return
			}
		}
	}

	if err := h.db.Delete(&model.User{}, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete users", err))
		return
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}
