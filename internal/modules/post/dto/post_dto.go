package dto

type CreatePostRequest struct {
	Content  string  `json:"content" binding:"required,max=5000"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
	GroupID  *string `json:"group_id" binding:"omitempty,uuid"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
