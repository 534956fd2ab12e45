package types

// Progress summarises part completion for a project or an initiative.
// It is computed on read and never stored.
type Progress struct {
	Total      int `json:"total"`
	Done       int `json:"done"`
	InProgress int `json:"in_progress"`
	Unassigned int `json:"unassigned"`
	Percent    int `json:"percent"`
}

type RegionStat struct {
	Region       string `db:"region" json:"region"`
	Contributors int    `db:"contributors" json:"contributors"`
	Requests     int    `db:"requests" json:"requests"`
}

type DashboardStats struct {
	TotalRequests        int           `db:"total_requests" json:"total_requests"`
	WheelchairsCompleted int           `db:"wheelchairs_completed" json:"wheelchairs_completed"`
	PartsInProgress      int           `db:"parts_in_progress" json:"parts_in_progress"`
	TotalParts           int           `db:"total_parts" json:"total_parts"`
	PartsCompleted       int           `db:"parts_completed" json:"parts_completed"`
	TotalContributors    int           `db:"total_contributors" json:"total_contributors"`
	Regions              []*RegionStat `db:"-" json:"regions"`
}
