package autoload

import (
	configx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/config"
	logx "github.com/tanpawarit/Aster-Local-First-Assistant-Core/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
