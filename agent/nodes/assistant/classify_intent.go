package assistantnode

import (
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/contract"
	routerx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/agent/router"
)

// ClassifyIntent runs the deterministic pre-router. Recognized utterances
// carry their tool calls straight to execution without a model round trip.
func ClassifyIntent(in *GraphState, router *routerx.Router) (*GraphState, error) {
	if in == nil {
		return nil, errors.New("classify intent: state is nil")
	}
	if router == nil {
		in.Route = contractx.LlmRoute()
		return in, nil
	}

	in.Route = router.Classify(in.Text)
	switch in.Route.Kind {
	case contractx.RouteTools:
		in.PreRouted = true
		in.Calls = in.Route.Calls
		log.Debug().Str("tool", in.Calls[0].Name).Msg("request pre-routed to tools")
	case contractx.RouteError:
		in.Failed = true
		in.Message = in.Route.Reason
	}
	return in, nil
}
