package screen

import (
	"github.com/rovshanmuradov/perpshield/internal/ledger"
	"github.com/rovshanmuradov/perpshield/internal/ui"
	"github.com/rovshanmuradov/perpshield/internal/ui/router"
)

// NewFactory builds screens for the router.
func NewFactory(env *Env) router.Factory {
	return func(route ui.Route) router.Screen {
		switch route {
		case ui.RouteHome:
			return NewHomeScreen(env)
		case ui.RouteTrade:
			return NewTradeScreen(env)
		case ui.RouteTradeModal:
			return NewTradeModal(env, "", ledger.Long)
		case ui.RoutePools:
			return NewPoolsScreen(env)
		case ui.RouteLogs:
			return NewLogsScreen(env)
		default:
			return nil
		}
	}
}
