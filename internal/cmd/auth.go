package cmd

import (
	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
	kakaoCode     string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Sign in to Snapgram, sign out, and show who you are",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login with username and password",
	Long:  "Authenticate with a username and password. Missing values are prompted for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Auth().Login(cmd.Context(), loginUsername, loginPassword)
	},
}

var kakaoCmd = &cobra.Command{
	Use:   "kakao",
	Short: "Login with Kakao",
	Long: `Sign in through Kakao. The CLI prints an authorize URL and waits for
Kakao to redirect back to the configured redirect URI on this machine.
Pass --code to exchange an authorization code obtained elsewhere.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if kakaoCode != "" {
			return deps.Auth().LoginWithKakaoCode(cmd.Context(), kakaoCode)
		}
		return deps.Auth().KakaoLogin(cmd.Context())
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from Snapgram",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Auth().Logout()
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Display current authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Auth().Me()
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when omitted)")
	kakaoCmd.Flags().StringVar(&kakaoCode, "code", "", "Exchange this authorization code instead of opening the browser flow")

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(kakaoCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(meCmd)
}
