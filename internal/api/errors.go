package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a non-2xx response.
type Kind int

const (
	KindConnection Kind = iota
	KindAuthExpired
	KindAccessDenied
	KindEndpointNotFound
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindAccessDenied:
		return "access_denied"
	case KindEndpointNotFound:
		return "endpoint_not_found"
	case KindServerError:
		return "server_error"
	default:
		return "connection"
	}
}

func kindOf(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthExpired
	case http.StatusForbidden:
		return KindAccessDenied
	case http.StatusNotFound:
		return KindEndpointNotFound
	case http.StatusInternalServerError:
		return KindServerError
	default:
		return KindConnection
	}
}

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	Status  int
	Kind    Kind
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API returned status %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("API returned status %d (%s)", e.Status, e.Kind)
}

// NetworkError is a request that never produced a response: refused
// connection, DNS failure or timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("cannot reach server (%s): %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a 2xx process-data response whose status field is not "success".
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API reported status %q for process-data", e.Status)
}

// IsAuthExpired reports whether err is a 401 from the API.
func IsAuthExpired(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Kind == KindAuthExpired
}

// UserMessage renders an API error the way it is shown to users.
func UserMessage(err error) string {
	var he *HTTPError
	var ne *NetworkError
	var se *StatusError
	switch {
	case errors.As(err, &he):
		switch he.Kind {
		case KindAuthExpired:
			return "Autenticação expirada. Faça login novamente."
		case KindAccessDenied:
			return "Acesso negado. Você não tem permissão para acessar este recurso."
		case KindEndpointNotFound:
			return "Endpoint não encontrado. Verifique a configuração da API."
		case KindServerError:
			return "Erro interno do servidor. Tente novamente mais tarde."
		}
		if he.Message != "" {
			return he.Message
		}
		return fmt.Sprintf("Erro %d na comunicação com o servidor.", he.Status)
	case errors.As(err, &ne):
		return "Não foi possível conectar ao servidor. Verifique sua conexão."
	case errors.As(err, &se):
		return "O backend retornou um status de erro."
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
