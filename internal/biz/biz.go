package biz

import (
	"github.com/sirupsen/logrus"

	"github.com/rantbot/rantbot/internal/biz/repo"
	"github.com/rantbot/rantbot/internal/biz/usecase"
	"github.com/rantbot/rantbot/internal/metrics"
)

// Usecases contains all usecases
type Usecases struct {
	Context  *usecase.UserContextUsecase
	Callback *usecase.CallbackUsecase
	Generate *usecase.GenerateUsecase
}

// NewUsecases wires every usecase against its repository
func NewUsecases(
	contextRepo repo.UserContextRepo,
	pendingRepo repo.PendingRepo,
	llmRepo repo.LLMRepo,
	genCfg usecase.GenerationConfig,
	log logrus.FieldLogger,
	m *metrics.Metrics,
) *Usecases {
	return &Usecases{
		Context:  usecase.NewUserContextUsecase(contextRepo, log, m),
		Callback: usecase.NewCallbackUsecase(pendingRepo, log, m),
		Generate: usecase.NewGenerateUsecase(llmRepo, genCfg, log, m),
	}
}
