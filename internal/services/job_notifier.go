package services

import (
	"fmt"

	"github.com/inkfall/studio-backend/internal/jobs"
	"github.com/inkfall/studio-backend/internal/sse"
)

/*
sseJobNotifier implements jobs.Notifier on top of the SSE hub. Every state
change broadcasts the full job snapshot on two channels: "job:<id>" for
clients following one job, and "user:<owner>" (when the job carries an
owner_user_id in its metadata) for clients following everything they own.
*/
type sseJobNotifier struct {
	hub *sse.Hub
}

func NewJobNotifier(hub *sse.Hub) jobs.Notifier {
	return &sseJobNotifier{hub: hub}
}

func (n *sseJobNotifier) emit(event sse.Event, job *jobs.Job) {
	data := map[string]any{"job": job}
	n.hub.Broadcast(sse.Message{Channel: "job:" + job.ID.String(), Event: event, Data: data})
	if owner, ok := job.Metadata["owner_user_id"]; ok {
		n.hub.Broadcast(sse.Message{Channel: "user:" + fmt.Sprint(owner), Event: event, Data: data})
	}
}

func (n *sseJobNotifier) JobCreated(job *jobs.Job)       { n.emit(sse.EventJobCreated, job) }
func (n *sseJobNotifier) JobProgress(job *jobs.Job)      { n.emit(sse.EventJobProgress, job) }
func (n *sseJobNotifier) JobAwaitingInput(job *jobs.Job) { n.emit(sse.EventJobAwaitingInput, job) }
func (n *sseJobNotifier) JobResumed(job *jobs.Job)       { n.emit(sse.EventJobResumed, job) }
func (n *sseJobNotifier) JobDone(job *jobs.Job)          { n.emit(sse.EventJobDone, job) }
func (n *sseJobNotifier) JobFailed(job *jobs.Job)        { n.emit(sse.EventJobFailed, job) }
func (n *sseJobNotifier) JobCancelled(job *jobs.Job)     { n.emit(sse.EventJobCancelled, job) }
