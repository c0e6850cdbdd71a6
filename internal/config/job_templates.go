package config

func JobTemplate(name, jobName, source string) *JobConfig {
	job := &JobConfig{Name: jobName, Source: source, Enabled: true}
	switch name {
	case "daily":
		job.Schedule = &ScheduleConfig{Period: "day", Times: 1, JitterMinutes: 15}
	case "twice-daily":
		job.Schedule = &ScheduleConfig{Period: "day", Times: 2, JitterMinutes: 15}
	case "weekly":
		job.Schedule = &ScheduleConfig{Period: "week", Times: 1, JitterMinutes: 30}
		job.KeepRelease = 4
	case "monthly":
		job.Schedule = &ScheduleConfig{Period: "month", Times: 1, JitterMinutes: 60}
		job.KeepRelease = 6
	case "manual":
	default:
		return nil
	}
	return job
}

func JobTemplateNames() []string {
	return []string{"daily", "twice-daily", "weekly", "monthly", "manual"}
}
