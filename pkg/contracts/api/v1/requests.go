// Package api contains the JSON contracts of the feedback export API.
package api

// ExportRequest asks for one export of the feedback rows of Center between
// StartDate and EndDate, both inclusive. Formats defaults to every format.
type ExportRequest struct {
	StartDate string   `json:"start_date" query:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" query:"end_date" validate:"required,datetime=2006-01-02"`
	Center    string   `json:"center" query:"center" validate:"required,center"`
	Formats   []string `json:"formats,omitempty" validate:"omitempty,dive,oneof=html text csv xlsx"`
}

// DownloadRequest selects a single file artifact for download.
type DownloadRequest struct {
	StartDate string `query:"start_date" json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `query:"end_date" json:"end_date" validate:"required,datetime=2006-01-02"`
	Center    string `query:"center" json:"center" validate:"required,center"`
	Format    string `query:"format" json:"format" validate:"required,oneof=csv xlsx"`
}

// RecentRequest asks for the rows of the last Days days.
type RecentRequest struct {
	Days int `query:"days" json:"days" validate:"omitempty,min=1,max=366"`
}
