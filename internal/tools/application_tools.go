package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nugget/jobtrack/internal/applications"
)

// ApplicationStore is the backing store the application tools write to.
type ApplicationStore interface {
	Create(ctx context.Context, app applications.Application) (*applications.Application, error)
	UpdateLatest(ctx context.Context, userID, company string, u applications.Update) (*applications.Application, error)
	ListByUser(ctx context.Context, userID string) ([]applications.Application, error)
}

// ApplicationTools returns the tools offered for application tracking.
func ApplicationTools(store ApplicationStore) []Tool {
	return []Tool{
		&logApplicationTool{store: store},
		&updateApplicationTool{store: store},
		&listApplicationsTool{store: store},
	}
}

// log_application

type logApplicationTool struct {
	store ApplicationStore
}

func (*logApplicationTool) Name() string { return "log_application" }

func (*logApplicationTool) Description() string {
	return "Log a new job application. Use when the user says they applied somewhere."
}

func (*logApplicationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"company": map[string]any{
				"type":        "string",
				"description": "The company name",
			},
			"role": map[string]any{
				"type":        "string",
				"description": "The job role/title",
			},
			"date": map[string]any{
				"type":        "string",
				"description": "The application date (YYYY-MM-DD format)",
			},
			"source": map[string]any{
				"type":        "string",
				"description": "How the user applied (e.g., LinkedIn, referral, website)",
			},
			"resume_version": map[string]any{
				"type":        "string",
				"description": "Optional resume version used",
			},
		},
		"required": []string{"company", "role", "date", "source"},
	}
}

func (t *logApplicationTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	company, err := stringArg(args, "company", true)
	if err != nil {
		return nil, err
	}
	role, err := stringArg(args, "role", true)
	if err != nil {
		return nil, err
	}
	date, err := dateArg(args, "date")
	if err != nil {
		return nil, err
	}
	source, err := stringArg(args, "source", true)
	if err != nil {
		return nil, err
	}
	resume, err := stringArg(args, "resume_version", false)
	if err != nil {
		return nil, err
	}

	app, err := t.store.Create(ctx, applications.Application{
		UserID:        UserIDFromContext(ctx),
		Company:       company,
		Role:          role,
		Date:          date,
		Source:        source,
		ResumeVersion: resume,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Application to %s for %s logged successfully", app.Company, app.Role),
		"id":      app.ID,
	}, nil
}

// update_application

type updateApplicationTool struct {
	store ApplicationStore
}

func (*updateApplicationTool) Name() string { return "update_application" }

func (*updateApplicationTool) Description() string {
	return "Update an existing job application, such as changing its status to interviewing."
}

func (*updateApplicationTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"company": map[string]any{
				"type":        "string",
				"description": "The company name",
			},
			"updates": map[string]any{
				"type":        "object",
				"description": `Fields to update (e.g., {"status": "interviewing"}). Allowed: status, role, date, source, resume_version`,
			},
		},
		"required": []string{"company", "updates"},
	}
}

func (t *updateApplicationTool) Execute(ctx context.Context, args map[string]any) (map[string]any, error) {
	company, err := stringArg(args, "company", true)
	if err != nil {
		return nil, err
	}
	raw, err := objectArg(args, "updates")
	if err != nil {
		return nil, err
	}
	u, err := parseUpdate(raw)
	if err != nil {
		return nil, err
	}

	app, err := t.store.UpdateLatest(ctx, UserIDFromContext(ctx), company, u)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Application to %s updated successfully", app.Company),
	}, nil
}

// parseUpdate validates the updates object. Every key must be a known
// field with a string value.
func parseUpdate(raw map[string]any) (applications.Update, error) {
	var u applications.Update
	if len(raw) == 0 {
		return u, &ArgumentError{Argument: "updates", Reason: "must contain at least one field"}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := stringArg(raw, k, true)
		if err != nil {
			return u, &ArgumentError{Argument: "updates." + k, Reason: err.(*ArgumentError).Reason}
		}
		switch k {
		case "status":
			u.Status = &v
		case "role":
			u.Role = &v
		case "date":
			if _, err := time.Parse(dateLayout, v); err != nil {
				return u, &ArgumentError{Argument: "updates.date", Reason: "expected YYYY-MM-DD"}
			}
			u.Date = &v
		case "source":
			u.Source = &v
		case "resume_version":
			u.ResumeVersion = &v
		default:
			return u, &ArgumentError{Argument: "updates." + k, Reason: "unknown field"}
		}
	}
	return u, nil
}

// get_applications_by_user

type listApplicationsTool struct {
	store ApplicationStore
}

func (*listApplicationsTool) Name() string { return "get_applications_by_user" }

func (*listApplicationsTool) Description() string {
	return "Get all job applications for the current user."
}

func (*listApplicationsTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *listApplicationsTool) Execute(ctx context.Context, _ map[string]any) (map[string]any, error) {
	apps, err := t.store.ListByUser(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}

	records := make([]any, 0, len(apps))
	for _, a := range apps {
		rec := map[string]any{
			"id":      a.ID,
			"company": a.Company,
			"role":    a.Role,
			"status":  a.Status,
			"date":    a.Date,
			"source":  a.Source,
		}
		if a.ResumeVersion != "" {
			rec["resume_version"] = a.ResumeVersion
		}
		records = append(records, rec)
	}
	return map[string]any{"applications": records}, nil
}
