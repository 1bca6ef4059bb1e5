package model

// Schedule is a recurring report job owned by the server.
type Schedule struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Recurrence  string   `json:"recurrence"`
	Status      string   `json:"status"`
	Email       string   `json:"email"`
	StartDate   string   `json:"startDate"`
	KPIs        []string `json:"kpis"`
	Machines    []string `json:"machines"`
	MachineType string   `json:"machineType,omitempty"`
}

type scheduleWire struct {
	ID          *int      `json:"id" validate:"required"`
	Name        *string   `json:"name" validate:"required,min=1"`
	Recurrence  *string   `json:"recurrence" validate:"required"`
	Status      *string   `json:"status" validate:"required"`
	Email       *string   `json:"email" validate:"required"`
	StartDate   *string   `json:"startDate" validate:"required"`
	KPIs        *[]string `json:"kpis" validate:"required"`
	Machines    *[]string `json:"machines" validate:"required"`
	MachineType *string   `json:"machineType"`
}

// DecodeSchedule decodes a single schedule object.
func DecodeSchedule(data []byte) (Schedule, error) {
	var w scheduleWire
	if err := DecodeInto("Schedule", data, &w); err != nil {
		return Schedule{}, err
	}
	return Schedule{
		ID:          *w.ID,
		Name:        *w.Name,
		Recurrence:  *w.Recurrence,
		Status:      *w.Status,
		Email:       *w.Email,
		StartDate:   *w.StartDate,
		KPIs:        *w.KPIs,
		Machines:    *w.Machines,
		MachineType: deref(w.MachineType),
	}, nil
}

// DecodeSchedules decodes a JSON array of schedules.
func DecodeSchedules(data []byte) ([]Schedule, error) {
	return decodeList("Schedule", data, DecodeSchedule)
}
