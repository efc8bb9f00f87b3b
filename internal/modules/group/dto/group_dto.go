package dto

type CreateGroupRequest struct {
	Title         string  `json:"title" binding:"required,max=255"`
	Description   *string `json:"description" binding:"omitempty,max=2000"`
	CoverImageURL *string `json:"cover_image_url" binding:"omitempty,url"`
	IsPrivate     bool    `json:"is_private"`
}
