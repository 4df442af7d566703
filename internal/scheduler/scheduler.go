package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/angeli-sliit/AirSense/internal/airquality"
)

// Scheduler periodically re-ingests the tracked cities so the local
// store stays close to the upstream without caller traffic.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *airquality.Service
	cities    []string
	days      int
	interval  time.Duration
}

// New creates a new Scheduler.
func New(cities []string, days int, interval time.Duration, service *airquality.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		days:      days,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		log.Println("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running air-quality refresh job")

		var wg sync.WaitGroup
		for _, city := range s.cities {
			city := city
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()

				res, err := s.service.IngestWindow(ctx, city, s.days)
				if err != nil {
					log.Printf("scheduler: refresh failed for %s: %v", city, err)
					return
				}
				log.Printf("scheduler: refreshed %s (%d rows)", city, res.Inserted)
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed air-quality refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
