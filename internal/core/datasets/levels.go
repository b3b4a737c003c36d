package datasets

import "github.com/JonMunkholm/matriculas/internal/core"

func init() {
	registerEscolas()
	registerMunicipios()
	registerEstados()
}

func registerEscolas() {
	core.Register(core.DatasetDefinition{
		Info: core.DatasetInfo{
			Key:      "escolas",
			Label:    "Escolas",
			FileStem: "dados_escolas",
			Table:    "matriculas_escolas",
		},
		YearColumn:         ColYear,
		NetworkColumn:      ColNetwork,
		DescriptiveColumns: []string{"CO_ENTIDADE", "NO_ENTIDADE", "NO_MUNICIPIO", ColUF},
		TextFilterColumns:  []string{"CO_ENTIDADE", "NO_ENTIDADE", "NO_MUNICIPIO"},
		Normalizers:        commonNormalizers(),
	})
}

func registerMunicipios() {
	core.Register(core.DatasetDefinition{
		Info: core.DatasetInfo{
			Key:      "municipios",
			Label:    "Municípios",
			FileStem: "dados_municipios",
			Table:    "matriculas_municipios",
		},
		YearColumn:         ColYear,
		NetworkColumn:      ColNetwork,
		DescriptiveColumns: []string{"CO_MUNICIPIO", "NO_MUNICIPIO", ColUF},
		PercentColumns:     []string{"PC_REDE"},
		Normalizers:        commonNormalizers(),
	})
}

func registerEstados() {
	core.Register(core.DatasetDefinition{
		Info: core.DatasetInfo{
			Key:      "estados",
			Label:    "Estados",
			FileStem: "dados_estados",
			Table:    "matriculas_estados",
		},
		YearColumn:         ColYear,
		NetworkColumn:      ColNetwork,
		DescriptiveColumns: []string{"CO_UF", "NO_UF", ColUF},
		PercentColumns:     []string{"PC_REDE"},
		Normalizers:        commonNormalizers(),
	})
}
