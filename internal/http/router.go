package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Repository *RepositoryHandler
	Schedule   *ScheduleHandler
	Updates    http.Handler
	Health     http.Handler
	Metrics    http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Repository != nil {
		mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Repository.ListEvents(w, r)
			case http.MethodPost:
				cfg.Repository.CreateEvent(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/events/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/events/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEventID(r.Context(), id))
			switch r.Method {
			case http.MethodPatch:
				cfg.Repository.PatchEvent(w, r)
			case http.MethodDelete:
				cfg.Repository.DeleteEvent(w, r)
			default:
				methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
			}
		})
		mux.HandleFunc("/api/trainers", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Repository.ListTrainers(w, r)
		})
		mux.HandleFunc("/api/trainers/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/trainers/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Repository.PutTrainer(w, r.WithContext(ContextWithTrainerID(r.Context(), id)))
		})
	}

	if cfg.Schedule != nil {
		mux.HandleFunc("/schedule/events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Schedule.List(w, r)
			case http.MethodPost:
				cfg.Schedule.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/schedule/events/", func(w http.ResponseWriter, r *http.Request) {
			id, sub, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/schedule/events/"), "/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithEventID(r.Context(), id))
			switch sub {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Schedule.Get(w, r)
				case http.MethodPatch:
					cfg.Schedule.Update(w, r)
				case http.MethodDelete:
					cfg.Schedule.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
				}
			case "status":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Schedule.UpdateStatus(w, r)
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/schedule/trainers", getOnly(cfg.Schedule.Trainers))
		mux.HandleFunc("/schedule/trainers/", func(w http.ResponseWriter, r *http.Request) {
			id, sub, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/schedule/trainers/"), "/")
			if id == "" || sub != "next-slot" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Schedule.NextSlot(w, r.WithContext(ContextWithTrainerID(r.Context(), id)))
		})
		mux.HandleFunc("/schedule/conflicts", getOnly(cfg.Schedule.Conflicts))
		mux.HandleFunc("/schedule/availability", getOnly(cfg.Schedule.Availability))
		mux.HandleFunc("/schedule/analytics", getOnly(cfg.Schedule.Analytics))
		mux.HandleFunc("/schedule/state", getOnly(cfg.Schedule.State))
		mux.HandleFunc("/schedule/refresh", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Schedule.Refresh(w, r)
		})
	}

	if cfg.Updates != nil {
		mux.Handle("/schedule/updates", cfg.Updates)
	}
	if cfg.Health != nil {
		mux.Handle("/healthz", cfg.Health)
	}
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func getOnly(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		fn(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
