package mocks

//go:generate mockgen -destination=./mock_random_source.go -package=mocks github.com/rxtech-lab/argo-swing/internal/policy RandomSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-swing/pkg/marketdata/provider Provider,Downloader
