package models

// ScheduleGroup is a named roster group an account belongs to.
type ScheduleGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
