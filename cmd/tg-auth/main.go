package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/session/tdesktop"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("=== telegram auth tool ===")
	fmt.Println("generates a session string for the chat exporter")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// try to import an existing telegram desktop session first
	tdataPath := telegramDesktopPath()
	accounts, tdataErr := tdesktop.Read(tdataPath, nil)

	if tdataErr != nil || len(accounts) == 0 {
		fmt.Printf("no session found at default path: %s\n", tdataPath)
		fmt.Print("enter telegram desktop path (or press enter to skip): ")
		customPath, _ := reader.ReadString('\n')
		customPath = strings.TrimSpace(customPath)

		if customPath != "" {
			if !strings.HasSuffix(customPath, "tdata") {
				customPath = filepath.Join(customPath, "tdata")
			}
			accounts, tdataErr = tdesktop.Read(customPath, nil)
		}
	}

	usePhone := true
	if tdataErr == nil && len(accounts) > 0 {
		fmt.Printf("\ndetected %d telegram desktop session(s)\n", len(accounts))
		fmt.Println("choose authentication method:")
		fmt.Println("  1. use telegram desktop session (recommended)")
		fmt.Println("  2. authenticate with phone number (sms/code)")
		fmt.Print("\nenter choice [1]: ")

		choice, _ := reader.ReadString('\n')
		usePhone = strings.TrimSpace(choice) == "2"
	} else {
		fmt.Println("no telegram desktop session found, using phone auth")
	}

	apiID, apiHash := apiCredentials(reader)

	var client *gotgproto.Client
	var err error
	if usePhone {
		client, err = authWithPhone(apiID, apiHash, reader)
	} else {
		client, err = authWithTData(apiID, apiHash, accounts, reader)
	}
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	defer client.Stop()

	sessionString, err := client.ExportStringSession()
	if err != nil {
		fmt.Printf("error exporting session: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nauthentication successful!")
	fmt.Printf("logged in as: @%s\n", client.Self.Username)
	fmt.Println("\nyour session string:")
	fmt.Println("---")
	fmt.Println(sessionString)
	fmt.Println("---")
	fmt.Println("\nadd this to your .env file as TG_SESSION_STRING")
	fmt.Println("keep it secret: it provides full access to your telegram account")
}

// telegramDesktopPath returns the platform default tdata directory.
func telegramDesktopPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Telegram Desktop", "tdata")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Telegram Desktop", "tdata")
	default: // linux
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "TelegramDesktop", "tdata")
	}
}

// apiCredentials reads api id and hash from the environment or prompts
// for them.
func apiCredentials(reader *bufio.Reader) (int, string) {
	apiIDStr := os.Getenv("TG_API_ID")
	apiHash := os.Getenv("TG_API_HASH")

	if apiIDStr == "" {
		fmt.Print("enter your api_id (from https://my.telegram.org): ")
		apiIDStr, _ = reader.ReadString('\n')
		apiIDStr = strings.TrimSpace(apiIDStr)
	}
	if apiHash == "" {
		fmt.Print("enter your api_hash: ")
		apiHash, _ = reader.ReadString('\n')
		apiHash = strings.TrimSpace(apiHash)
	}

	apiID, err := strconv.Atoi(apiIDStr)
	if err != nil {
		fmt.Printf("error: invalid api_id: %v\n", err)
		os.Exit(1)
	}

	return apiID, apiHash
}

// authWithTData authenticates with an imported telegram desktop
// session.
func authWithTData(apiID int, apiHash string, accounts []tdesktop.Account, reader *bufio.Reader) (*gotgproto.Client, error) {
	selected := accounts[0]
	if len(accounts) > 1 {
		fmt.Printf("\nfound %d accounts\n", len(accounts))
		fmt.Print("select account number [1]: ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(accounts) {
			selected = accounts[n-1]
		}
	}

	fmt.Println("\nauthenticating with telegram desktop session...")

	return gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(""), // empty = use session
		&gotgproto.ClientOpts{
			Session:          sessionMaker.TdataSession(selected).Name("tdata_session"),
			DisableCopyright: true,
		},
	)
}

// authWithPhone authenticates with a phone number and login code.
func authWithPhone(apiID int, apiHash string, reader *bufio.Reader) (*gotgproto.Client, error) {
	fmt.Print("enter your phone number (with country code, e.g. +1234567890): ")
	phone, _ := reader.ReadString('\n')
	phone = strings.TrimSpace(phone)

	fmt.Println("\nauthenticating... (check telegram for the code)")

	client, err := gotgproto.NewClient(
		apiID,
		apiHash,
		gotgproto.ClientTypePhone(phone),
		&gotgproto.ClientOpts{
			Session:          sessionMaker.SqlSession(sqlite.Open("chatexport_session")),
			DisableCopyright: true,
		},
	)
	if err == nil {
		fmt.Println("\nnote: chatexport_session.db stores the login; delete it after copying the string.")
	}

	return client, err
}
