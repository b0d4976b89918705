package catalog

// defaultCategories mirrors the stock material list for a typical
// grid-tied photovoltaic installation.
func defaultCategories() []Category {
	return []Category{
		{
			Name: "Geração",
			Items: []Item{
				{Code: "PV-450", Name: "Painel solar 450W", Unit: "un"},
				{Code: "PV-550", Name: "Painel solar 550W", Unit: "un"},
				{Code: "INV-3K", Name: "Inversor grid-tie 3kW", Unit: "un"},
				{Code: "INV-5K", Name: "Inversor grid-tie 5kW", Unit: "un"},
				{Code: "MICRO-2K", Name: "Microinversor 2kW", Unit: "un"},
			},
		},
		{
			Name: "Cabeamento",
			Items: []Item{
				{Code: "CABO-6", Name: "Cabo solar 6mm preto", Unit: "m"},
				{Code: "CABO-6V", Name: "Cabo solar 6mm vermelho", Unit: "m"},
				{Code: "MC4-PAR", Name: "Par de conectores MC4", Unit: "par"},
				{Code: "ETERNA", Name: "Eletroduto corrugado 25mm", Unit: "m"},
			},
		},
		{
			Name: "Estrutura",
			Items: []Item{
				{Code: "TRILHO-2M", Name: "Trilho de alumínio 2,10m", Unit: "un"},
				{Code: "END-CLAMP", Name: "Terminal final (end clamp)", Unit: "un"},
				{Code: "MID-CLAMP", Name: "Terminal intermediário (mid clamp)", Unit: "un"},
				{Code: "GANCHO", Name: "Gancho para telha cerâmica", Unit: "un"},
				{Code: "PARAF-EST", Name: "Parafuso estrutural", Unit: "un"},
			},
		},
		{
			Name: "Proteção",
			Items: []Item{
				{Code: "STRINGBOX", Name: "String box CC 2 entradas", Unit: "un"},
				{Code: "DPS-CC", Name: "DPS CC 1000V", Unit: "un"},
				{Code: "DPS-CA", Name: "DPS CA 275V", Unit: "un"},
				{Code: "DISJ-CA", Name: "Disjuntor CA bipolar", Unit: "un"},
				{Code: "ATERR", Name: "Kit de aterramento", Unit: "un"},
			},
		},
	}
}
