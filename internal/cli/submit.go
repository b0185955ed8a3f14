package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/deanDev5200/web-aspirasi/client"
)

func NewSubmitCommand(root *RootOptions) *cobra.Command {
	var (
		nama      string
		kelas     string
		anonymous bool
	)

	cmd := &cobra.Command{
		Use:   "submit <aspirasi...>",
		Short: "Send an aspirasi",
		Example: `  aspirasi submit --nama Ani --kelas "XI A" Perbaiki kantin sekolah
  aspirasi submit --anonim WiFi perpustakaan lambat`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(root)
			if err != nil {
				return err
			}

			a, err := s.client.Create(cmd.Context(), client.NewAspirasi{
				Nama:        nama,
				Kelas:       kelas,
				Aspirasi:    strings.Join(args, " "),
				IsAnonymous: anonymous,
			})
			if err != nil {
				return err
			}

			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			if p.json() {
				return p.JSON(a)
			}
			return p.Message("Aspirasi terkirim (%s)", a.ID)
		},
	}

	cmd.Flags().StringVar(&nama, "nama", "", "sender name")
	cmd.Flags().StringVar(&kelas, "kelas", "", "sender class")
	cmd.Flags().BoolVar(&anonymous, "anonim", false, "send anonymously")
	return cmd
}
