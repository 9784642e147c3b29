package dto

type SearchContentRequest struct {
	Query string `query:"q" validate:"required,max=500"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=20"`
}
