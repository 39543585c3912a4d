package enums

type DurationType string

const (
	DurationTypeDay   DurationType = "day"
	DurationTypeWeek  DurationType = "week"
	DurationTypeMonth DurationType = "month"
	DurationTypeYear  DurationType = "year"
)
