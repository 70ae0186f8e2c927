package request

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// BySlugRequest is a common struct for endpoints addressed by a hall slug.
type BySlugRequest struct {
	Slug string `uri:"slug" binding:"required,min=2,max=100"`
}

// ListParams holds shared pagination query parameters.
type ListParams struct {
	Page     int `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}
