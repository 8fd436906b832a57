package server

// Server объединяет HTTP-серверы, отвечающие за обработку конкретных сущностей.
type Server struct {
	SaleServer
	SettlementServer
}

func NewServer(
	saleServer SaleServer,
	settlementServer SettlementServer,
) Server {
	return Server{
		SaleServer:       saleServer,
		SettlementServer: settlementServer,
	}
}
