package playbook

// loader.go: carga el knowledge base de estrategias (kb.txt).
//
// El fichero es texto libre con estrategias numeradas ("1. Nothing Ever
// Happens", "2) News Scalping", ...). Solo se cuentan los números para
// poder validar las citas del proveedor de IA.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alejandrodnm/copybot/internal/domain"
)

var strategyHeading = regexp.MustCompile(`^\s*(?:#+\s*)?(?:Strategy\s+)?(\d{1,3})[.):]\s+\S`)

// Load lee el playbook de path. Un fichero inexistente no es un error:
// se avisa y se devuelve un playbook vacío.
func Load(path string) (domain.Playbook, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("playbook: file not found, continuing without strategies", "path", path)
		return domain.Playbook{}, nil
	}
	if err != nil {
		return domain.Playbook{}, fmt.Errorf("playbook.Load: %w", err)
	}
	defer f.Close()

	pb, err := Parse(f)
	if err != nil {
		return domain.Playbook{}, fmt.Errorf("playbook.Load %s: %w", path, err)
	}
	slog.Info("playbook: loaded", "path", path, "strategies", pb.Strategies)
	return pb, nil
}

// Parse cuenta las estrategias numeradas de r. El número de estrategias es
// el mayor n tal que 1..n aparecen todas como encabezado.
func Parse(r io.Reader) (domain.Playbook, error) {
	var (
		sb   strings.Builder
		seen = make(map[int]bool)
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		sb.WriteString(line)
		sb.WriteByte('\n')
		if m := strategyHeading.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			seen[n] = true
		}
	}
	if err := sc.Err(); err != nil {
		return domain.Playbook{}, err
	}

	count := 0
	for seen[count+1] {
		count++
	}
	return domain.Playbook{
		Text:       strings.TrimSpace(sb.String()),
		Strategies: count,
	}, nil
}
