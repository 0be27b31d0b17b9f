package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/tenant"
)

const lookupTimeout = 5 * time.Second

// DBResolver resolves prompts in priority order: the room's directly
// configured prompt, then the room's stored template, then the default
// template. Every failure path lands on the default so translation is
// never blocked on prompt lookup.
type DBResolver struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

func NewDBResolver(db *pgxpool.Pool, logger zerolog.Logger) *DBResolver {
	return &DBResolver{
		db:     db,
		logger: logger.With().Str("component", "prompt_resolver").Logger(),
	}
}

func (r *DBResolver) Resolve(ctx context.Context, tc *tenant.Context, sourceLang, targetLang string) string {
	if tc != nil && tc.TranslationPrompt != "" {
		r.logger.Info().Str("room_id", tc.RoomID).Msg("using direct room prompt")
		return Render(tc.TranslationPrompt, sourceLang, targetLang, nil)
	}

	if r.db != nil && tc != nil && tc.RoomID != "" {
		template, variables, err := r.fetchTemplate(ctx, tc.RoomID)
		if err != nil {
			r.logger.Warn().Err(err).Str("room_id", tc.RoomID).Msg("prompt template lookup failed, using default")
		} else if template != "" {
			r.logger.Info().Str("room_id", tc.RoomID).Msg("using stored prompt template")
			return Render(template, sourceLang, targetLang, variables)
		}
	}

	return Render(DefaultTemplate, sourceLang, targetLang, nil)
}

// fetchTemplate loads the room's template and its jsonb variable map.
// A room without a template returns empty values, not an error.
func (r *DBResolver) fetchTemplate(ctx context.Context, roomID string) (string, map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var template string
	var rawVariables []byte
	err := r.db.QueryRow(ctx, `
		SELECT pt.prompt_template, COALESCE(pt.template_variables, '{}'::jsonb)
		FROM prompt_templates pt
		JOIN rooms r ON r.prompt_template_id = pt.id
		WHERE r.id = $1 AND pt.is_active = true`,
		roomID,
	).Scan(&template, &rawVariables)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	variables := make(map[string]string)
	if len(rawVariables) > 0 {
		if err := json.Unmarshal(rawVariables, &variables); err != nil {
			r.logger.Warn().Err(err).Str("room_id", roomID).Msg("template variables are not a flat object, ignoring")
			variables = nil
		}
	}
	return template, variables, nil
}
