package jobs

import "github.com/tnqbao/gau-marine-service/entity"

// Summary holds the dashboard counters. Refund counters only look at done jobs.
type Summary struct {
	Total            int `json:"total_jobs"`
	Active           int `json:"active_jobs"`
	Completed        int `json:"completed_jobs"`
	PendingRefunds   int `json:"pending_refunds"`
	CollectedRefunds int `json:"collected_refunds"`
	Consignees       int `json:"consignees"`
}

func Summarize(jobs []entity.Job) Summary {
	s := Summary{Total: len(jobs)}
	consignees := make(map[string]struct{})
	for _, job := range jobs {
		consignees[job.Consignee] = struct{}{}
		switch job.Status {
		case entity.JobStatusPending:
			s.Active++
		case entity.JobStatusDone:
			s.Completed++
			if job.RefundStatus == entity.RefundStatusCollected {
				s.CollectedRefunds++
			} else {
				s.PendingRefunds++
			}
		}
	}
	s.Consignees = len(consignees)
	return s
}

func (c *Container) Summary() Summary {
	return Summarize(c.Jobs())
}

// RefundJobs returns the done jobs in serial order.
func (c *Container) RefundJobs() []entity.Job {
	var out []entity.Job
	for _, job := range c.Jobs() {
		if job.Status == entity.JobStatusDone {
			out = append(out, job)
		}
	}
	return out
}
